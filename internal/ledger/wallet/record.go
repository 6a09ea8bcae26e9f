package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

type account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type currency struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// amount is a signed decimal sent as a bare JSON number.
type amount struct{ decimal.Decimal }

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

type record struct {
	CurrencyID  string    `json:"currencyId"`
	AccountID   string    `json:"accountId"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Amount      amount    `json:"amount"`
	PaymentType string    `json:"paymentType,omitempty"`
	Note        string    `json:"note"`
	Date        time.Time `json:"date"`
	RecordState string    `json:"recordState"`
	TransferID  string    `json:"transferId,omitempty"`
}

type mapper struct {
	accounts   map[string]transaction.Account
	currencies map[string]transaction.Currency
	categories map[string]transaction.Category
}

func newMapper(accounts []transaction.Account, currencies []transaction.Currency, categories []transaction.Category) *mapper {
	m := &mapper{
		accounts:   make(map[string]transaction.Account, len(accounts)),
		currencies: make(map[string]transaction.Currency, len(currencies)),
		categories: make(map[string]transaction.Category, len(categories)),
	}

	for _, a := range accounts {
		m.accounts[a.ID] = a
	}

	for _, c := range currencies {
		m.currencies[c.ID] = c
	}

	for _, c := range categories {
		m.categories[c.ID] = c
	}

	return m
}

func (m *mapper) transaction(rec record) *transaction.Transaction {
	tx := &transaction.Transaction{
		Amount:      rec.Amount.Abs(),
		PaymentType: transaction.PaymentType(rec.PaymentType),
		Description: rec.Note,
		Date:        rec.Date,
		State:       rec.RecordState,
		TransferID:  rec.TransferID,
	}

	acc, ok := m.accounts[rec.AccountID]
	if !ok {
		acc = transaction.Account{ID: rec.AccountID}
	}

	switch {
	case rec.TransferID != "":
		tx.Type = transaction.TypeTransfer
	case rec.Amount.IsPositive():
		tx.Type = transaction.TypeDeposit
	default:
		tx.Type = transaction.TypeWithdrawal
	}

	if rec.Amount.IsPositive() {
		tx.DestinationAccount = &acc
	} else {
		tx.SourceAccount = &acc
	}

	if cur, ok := m.currencies[rec.CurrencyID]; ok {
		tx.Currency = &cur
	} else if rec.CurrencyID != "" {
		tx.Currency = &transaction.Currency{ID: rec.CurrencyID}
	}

	if cat, ok := m.categories[rec.CategoryID]; ok {
		tx.Category = &cat
	}

	return tx
}

// toRecords converts a transaction into the records Wallet stores for it.
func toRecords(tx *transaction.Transaction) []record {
	base := record{
		PaymentType: string(tx.PaymentType),
		Note:        tx.Description,
		Date:        tx.Date,
		RecordState: transaction.StateCleared,
		TransferID:  tx.TransferID,
	}

	if tx.Currency != nil {
		base.CurrencyID = tx.Currency.ID
	}

	if tx.Category != nil {
		base.CategoryID = tx.Category.ID
	}

	out := func(acc *transaction.Account) record {
		r := base
		r.AccountID = acc.ID
		r.Amount = amount{tx.Amount.Abs().Neg()}

		return r
	}

	in := func(acc *transaction.Account) record {
		r := base
		r.AccountID = acc.ID
		r.Amount = amount{tx.Amount.Abs()}

		return r
	}

	src, dst := tx.SourceAccount, tx.DestinationAccount

	switch {
	case tx.Type == transaction.TypeTransfer && src != nil && dst != nil:
		return []record{out(src), in(dst)}
	case tx.Type == transaction.TypeDeposit && dst != nil:
		return []record{in(dst)}
	case src != nil:
		return []record{out(src)}
	case dst != nil:
		return []record{in(dst)}
	default:
		return []record{base}
	}
}
