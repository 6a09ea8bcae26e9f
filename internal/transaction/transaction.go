package transaction

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type represents the direction of a transaction in the destination ledger.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeTransfer   Type = "transfer"
	TypeOther      Type = "other"
)

// PaymentType is a secondary classification derived from the account kind.
// It feeds the transfer heuristics and the Wallet destination, not Type.
type PaymentType string

const (
	PaymentCreditCard PaymentType = "credit_card"
	PaymentDebitCard  PaymentType = "debit_card"
	PaymentTransfer   PaymentType = "transfer"
	PaymentWeb        PaymentType = "web_payment"
	PaymentCash       PaymentType = "cash"
)

// Declared account kinds, as written in import configs.
const (
	AccountChecking   = "checking"
	AccountCreditCard = "credit_card"
	AccountInvestment = "investment"
)

// Well-known fallback category names.
const (
	CategoryTransfer = "Transfer"
	CategoryOthers   = "Others"
)

const StateCleared = "cleared"

// Account is an account known to the destination ledger.
type Account struct {
	ID   string
	Name string
	Type string
}

// Currency is a currency known to the destination ledger.
type Currency struct {
	ID   string
	Code string
}

// Category is a spending category. A category without an ID has not been
// matched against the ledger's category list yet.
type Category struct {
	ID   string
	Name string
}

// Resolved reports whether the category was taken from the ledger.
func (c *Category) Resolved() bool {
	return c != nil && c.ID != ""
}

// Transaction is the canonical record threaded through the import pipeline.
type Transaction struct {
	ID                 string
	Currency           *Currency
	SourceAccount      *Account
	DestinationAccount *Account
	Amount             decimal.Decimal // Always non-negative; direction lives in Type and the accounts.
	Type               Type
	PaymentType        PaymentType
	Description        string
	Date               time.Time
	Category           *Category
	TransferID         string
	Reconciled         bool
	State              string
	Tags               []string
	Reference          string // Source record id; empty for ledger records.
}

// Clone returns a copy that shares reference data but not tags.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Tags = slices.Clone(t.Tags)

	return &c
}

// CategoryName returns the category name or an empty string.
func (t *Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}

	return t.Category.Name
}

// Fingerprint identifies a transaction across runs by what the ledger would
// store plus its source reference. Same-day twins from a source without
// references or times share a fingerprint; callers match them by count.
func (t *Transaction) Fingerprint() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s",
		t.Date.Format(time.RFC3339),
		t.Amount.StringFixed(2),
		t.Type,
		strings.TrimSpace(t.Description),
		accountName(t.SourceAccount),
		accountName(t.DestinationAccount),
		t.Reference,
	)

	return fmt.Sprintf("%016x", h.Sum64())
}

func accountName(a *Account) string {
	if a == nil {
		return ""
	}

	return a.Name
}

// SameAccount reports whether a and b refer to the same ledger account.
// Two absent accounts are the same.
func SameAccount(a, b *Account) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
