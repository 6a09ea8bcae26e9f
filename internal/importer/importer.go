package importer

import (
	"context"
	"errors"
	"io"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// Format names a statement file layout.
type Format string

const (
	FormatOFX    Format = "ofx"
	FormatWallet Format = "wallet"
	FormatCGD    Format = "cgd"
)

var ErrUnknownFormat = errors.New("unknown file format")

// File describes one statement file to import and the account it belongs to.
type File struct {
	Path    string                      `yaml:"path" json:"path"`
	Format  Format                      `yaml:"format" json:"format"`
	Account transaction.DeclaredAccount `yaml:"account" json:"account"`
}

// Parser reads raw records from one file. Records may leave Account empty to
// inherit the file's declared account.
type Parser interface {
	Parse(r io.Reader) ([]transaction.Raw, error)
}

// Opener resolves a file path to its content.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
