package ofx

import (
	"fmt"
	"io"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// Parser reads bank and credit card statements from OFX files, v1 (SGML) or v2 (XML).
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.Raw, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("parse ofx: %w", err)
	}

	var raws []transaction.Raw

	for _, msg := range append(resp.CreditCard, resp.Bank...) {
		var (
			list     *ofxgo.TransactionList
			currency string
		)

		switch stmt := msg.(type) {
		case *ofxgo.StatementResponse:
			list, currency = stmt.BankTranList, stmt.CurDef.String()
		case *ofxgo.CCStatementResponse:
			list, currency = stmt.BankTranList, stmt.CurDef.String()
		default:
			continue
		}

		if list == nil {
			continue
		}

		for _, trn := range list.Transactions {
			raw, err := convert(trn, currency)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", trn.FiTID, err)
			}

			raws = append(raws, raw)
		}
	}

	return raws, nil
}

func convert(trn ofxgo.Transaction, currency string) (transaction.Raw, error) {
	amount, err := decimal.NewFromString(trn.TrnAmt.String())
	if err != nil {
		return transaction.Raw{}, fmt.Errorf("amount %q: %w", trn.TrnAmt.String(), err)
	}

	memo := string(trn.Memo)
	if memo == "" {
		memo = string(trn.Name)
	}

	return transaction.Raw{
		Date:      trn.DtPosted.Time,
		Amount:    amount,
		Memo:      memo,
		Currency:  currency,
		Reference: string(trn.FiTID),
	}, nil
}
