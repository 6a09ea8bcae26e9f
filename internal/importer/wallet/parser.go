// Package wallet reads record exports produced by the BudgetBakers Wallet app.
package wallet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/ledgersync/internal/encoding"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

const (
	colAccount  = "account"
	colCategory = "category"
	colCurrency = "currency"
	colAmount   = "amount"
	colNote     = "note"
	colDate     = "date"
)

var required = []string{colAccount, colCurrency, colAmount, colDate}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
}

var ErrMissingColumn = errors.New("missing column")

// Parser reads the ';' separated export with a header row. Each record names
// its own account.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.Raw, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var raws []transaction.Raw

	for row := 2; ; row++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		raw, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		raw.Reference = strconv.Itoa(row)
		raws = append(raws, raw)
	}

	return raws, nil
}

func parseRecord(rec []string, cols map[string]int) (transaction.Raw, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}

		return strings.TrimSpace(rec[i])
	}

	amount, err := decimal.NewFromString(get(colAmount))
	if err != nil {
		return transaction.Raw{}, fmt.Errorf("amount %q: %w", get(colAmount), err)
	}

	date, err := parseDate(get(colDate))
	if err != nil {
		return transaction.Raw{}, err
	}

	return transaction.Raw{
		Date:     date,
		Amount:   amount,
		Memo:     get(colNote),
		Currency: get(colCurrency),
		Account:  transaction.DeclaredAccount{Name: get(colAccount)},
		Category: get(colCategory),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("date %q: unrecognized format", s)
}
