package cgd

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

// Currency of every CGD export.
const Currency = "EUR"

const dateLayout = "02-01-2006"

var ErrNoProfile = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

// Parser reads Caixa Geral de Depósitos CSV exports (conta, extrato and
// cartão). The export is recognised by its header row, which may follow any
// number of metadata lines. Records carry no account; the file declares it.
// Each record's Reference is its 1-based row number in the export, blank
// lines not counted.
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

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	for i, row := range rows {
		pos := headerPositions(row)

		for _, l := range layouts {
			if cols, ok := l.bind(pos); ok {
				return cols.records(rows[i+1:], i+2)
			}
		}
	}

	return nil, ErrNoProfile
}

// records reads the rows after the header; first is the row number of the
// first of them. Rows without a date or a non-zero amount are footers.
func (c columns) records(rows [][]string, first int) ([]transaction.Raw, error) {
	var raws []transaction.Raw

	for i, row := range rows {
		line := first + i

		date, err := time.Parse(dateLayout, cell(row, c.date))
		if err != nil {
			continue
		}

		memo := cell(row, c.memo)
		if memo == "" {
			return nil, fmt.Errorf("row %d: missing description", line)
		}

		amount, ok := c.signedAmount(row)
		if !ok {
			continue
		}

		raws = append(raws, transaction.Raw{
			Date:      date,
			Amount:    amount,
			Memo:      memo,
			Currency:  Currency,
			Reference: strconv.Itoa(line),
		})
	}

	return raws, nil
}

// signedAmount reads a single signed column, or a debit/credit pair where a
// debit is negative and takes precedence.
func (c columns) signedAmount(row []string) (decimal.Decimal, bool) {
	if len(c.amount) == 1 {
		return amountAt(row, c.amount[0])
	}

	if d, ok := amountAt(row, c.amount[0]); ok {
		return d.Abs().Neg(), true
	}

	if d, ok := amountAt(row, c.amount[1]); ok {
		return d.Abs(), true
	}

	return decimal.Zero, false
}

func amountAt(row []string, idx int) (decimal.Decimal, bool) {
	s := cell(row, idx)
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseEuropeanAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
