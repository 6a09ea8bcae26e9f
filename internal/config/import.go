package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/ledgersync/internal/importer"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
)

var ErrInvalidImport = errors.New("invalid import config")

// Import describes one import run. JSON files parse too.
type Import struct {
	APIAuth     ledger.Auth        `yaml:"apiAuth" json:"apiAuth"`
	MaxDate     string             `yaml:"maxDate" json:"maxDate"`
	Destination ledger.Destination `yaml:"destination" json:"destination"`
	Files       []importer.File    `yaml:"files" json:"files"`
}

func LoadImport(path string) (*Import, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import config: %w", err)
	}

	return ParseImport(data)
}

func ParseImport(data []byte) (*Import, error) {
	var imp Import
	if err := yaml.Unmarshal(data, &imp); err != nil {
		return nil, fmt.Errorf("parse import config: %w", err)
	}

	if err := imp.Validate(); err != nil {
		return nil, err
	}

	return &imp, nil
}

func (c *Import) Validate() error {
	switch c.Destination {
	case ledger.Firefly, ledger.Wallet:
	case "":
		return fmt.Errorf("%w: destination is required", ErrInvalidImport)
	default:
		return fmt.Errorf("%w: unknown destination %q", ErrInvalidImport, c.Destination)
	}

	if len(c.Files) == 0 {
		return fmt.Errorf("%w: no files to import", ErrInvalidImport)
	}

	for i, f := range c.Files {
		if f.Path == "" {
			return fmt.Errorf("%w: files[%d]: path is required", ErrInvalidImport, i)
		}

		if f.Format == "" {
			return fmt.Errorf("%w: files[%d]: format is required", ErrInvalidImport, i)
		}
	}

	if _, err := c.Cutoff(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	return nil
}

// Cutoff parses MaxDate. An empty MaxDate yields the zero time.
func (c *Import) Cutoff() (time.Time, error) {
	if c.MaxDate == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateOnly, c.MaxDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("maxDate %q: %w", c.MaxDate, err)
	}

	return t, nil
}
