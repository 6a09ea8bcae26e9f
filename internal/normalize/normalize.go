package normalize

import (
	"github.com/MrJamesThe3rd/ledgersync/internal/reference"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// Provenance tags seeded on every imported transaction, before the file tag.
var ImportTags = []string{"Imported", "Unverified"}

type Normalizer struct {
	lookup *reference.Lookup
}

func New(lookup *reference.Lookup) *Normalizer {
	return &Normalizer{lookup: lookup}
}

// Transaction maps one raw record into the canonical model. Unknown accounts
// and currencies stay nil.
func (n *Normalizer) Transaction(raw transaction.Raw) *transaction.Transaction {
	tx := &transaction.Transaction{
		Amount:      raw.Amount.Abs(),
		Type:        typeOf(raw),
		PaymentType: paymentType(raw),
		Description: raw.Memo,
		Date:        raw.Date,
		Reconciled:  false,
		State:       transaction.StateCleared,
		Tags:        append(append([]string{}, ImportTags...), raw.File),
		Reference:   raw.Reference,
	}

	if acc, ok := n.lookup.Account(raw.Account.Name); ok {
		if raw.Amount.IsPositive() {
			tx.DestinationAccount = acc
		} else {
			tx.SourceAccount = acc
		}
	}

	if cur, ok := n.lookup.Currency(raw.Currency); ok {
		tx.Currency = cur
	}

	if raw.Category != "" {
		tx.Category = &transaction.Category{Name: raw.Category}
	}

	return tx
}

// All normalizes records keeping their order.
func (n *Normalizer) All(raws []transaction.Raw) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, len(raws))
	for i, raw := range raws {
		txs[i] = n.Transaction(raw)
	}

	return txs
}

func typeOf(raw transaction.Raw) transaction.Type {
	switch raw.Amount.Sign() {
	case 1:
		return transaction.TypeDeposit
	case -1:
		return transaction.TypeWithdrawal
	default:
		return transaction.TypeOther
	}
}

func paymentType(raw transaction.Raw) transaction.PaymentType {
	in := raw.Amount.IsPositive()

	switch raw.Account.Type {
	case transaction.AccountCreditCard:
		if in {
			return transaction.PaymentTransfer
		}

		return transaction.PaymentCreditCard
	case transaction.AccountChecking:
		if in {
			return transaction.PaymentTransfer
		}

		return transaction.PaymentDebitCard
	case transaction.AccountInvestment:
		return transaction.PaymentWeb
	default:
		return transaction.PaymentCash
	}
}
