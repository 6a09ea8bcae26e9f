package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeclaredAccount is the account a source file belongs to, as declared in the import config.
type DeclaredAccount struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Raw is one record as read from a source file, before normalization.
type Raw struct {
	Date      time.Time
	Amount    decimal.Decimal // Signed: positive is money in.
	Memo      string
	Currency  string
	Account   DeclaredAccount
	Category  string // Optional hint carried by the source.
	File      string
	Reference string // Source-specific id (OFX FITID, row number).
}

// IsCreditCard reports whether the raw record comes from a credit card account.
func (r Raw) IsCreditCard() bool {
	return r.Account.Type == AccountCreditCard
}
