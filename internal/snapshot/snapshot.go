// Package snapshot writes human-readable listings of a run's transactions.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

const (
	Preprocessed = "preprocessed_transactions"
	Final        = "transactions"
)

// Entry is the serialized form of one transaction.
type Entry struct {
	Index       int      `json:"index"`
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Source      string   `json:"source,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description"`
	TransferID  string   `json:"transferId,omitempty"`
	PaymentType string   `json:"paymentType,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Entries lists txs in date order, keeping input order for equal dates.
func Entries(txs []*transaction.Transaction) []Entry {
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b *transaction.Transaction) int {
		return a.Date.Compare(b.Date)
	})

	entries := make([]Entry, len(sorted))

	for i, tx := range sorted {
		e := Entry{
			Index:       i,
			Date:        tx.Date.Format(time.DateOnly),
			Type:        string(tx.Type),
			Amount:      tx.Amount.StringFixed(2),
			Category:    tx.CategoryName(),
			Description: tx.Description,
			TransferID:  tx.TransferID,
			PaymentType: string(tx.PaymentType),
			Tags:        tx.Tags,
		}

		if tx.Currency != nil {
			e.Currency = tx.Currency.Code
		}

		if tx.SourceAccount != nil {
			e.Source = tx.SourceAccount.Name
		}

		if tx.DestinationAccount != nil {
			e.Destination = tx.DestinationAccount.Name
		}

		entries[i] = e
	}

	return entries
}

type FileWriter struct {
	dir string
}

func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{dir: dir}
}

// Path returns the file a snapshot with the given name is written to.
func (w *FileWriter) Path(name string) string {
	return filepath.Join(w.dir, name+".json")
}

func (w *FileWriter) Write(ctx context.Context, name string, txs []*transaction.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	b, err := json.MarshalIndent(Entries(txs), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.WriteFile(w.Path(name), append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}

	return nil
}
