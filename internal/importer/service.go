package importer

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgersync/internal/importer/cgd"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer/ofx"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer/wallet"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

type Service struct {
	opener  Opener
	parsers map[Format]Parser
}

// NewService registers the built-in parsers. Extra parsers replace built-ins
// with the same format.
func NewService(opener Opener, extra map[Format]Parser) *Service {
	parsers := map[Format]Parser{
		FormatOFX:    ofx.NewParser(),
		FormatWallet: wallet.NewParser(),
		FormatCGD:    cgd.NewParser(),
	}
	for f, p := range extra {
		parsers[f] = p
	}

	return &Service{opener: opener, parsers: parsers}
}

// Load parses every file concurrently and returns their records in file
// order, each file keeping its own record order. Formats are checked before
// any file is opened and any failure discards the whole result.
func (s *Service) Load(ctx context.Context, files []File) ([]transaction.Raw, error) {
	for _, f := range files {
		if _, ok := s.parsers[f.Format]; !ok {
			return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownFormat, f.Format, f.Path)
		}
	}

	results := make([][]transaction.Raw, len(files))

	g, ctx := errgroup.WithContext(ctx)

	for i, f := range files {
		g.Go(func() error {
			raws, err := s.loadFile(ctx, f)
			if err != nil {
				return fmt.Errorf("load %s: %w", f.Path, err)
			}

			results[i] = raws

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []transaction.Raw
	for _, raws := range results {
		all = append(all, raws...)
	}

	return all, nil
}

func (s *Service) loadFile(ctx context.Context, f File) ([]transaction.Raw, error) {
	rc, err := s.opener.Open(ctx, f.Path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	raws, err := s.parsers[f.Format].Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Format, err)
	}

	tag := filepath.Base(f.Path)

	for i := range raws {
		raws[i].File = tag
		if raws[i].Account.Name == "" {
			raws[i].Account = f.Account
		}
	}

	return raws, nil
}
