package transfer

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// WindowDays is the largest gap, in whole days, between two legs of a transfer.
const WindowDays = 5

// Searcher returns ledger transactions similar to a description, best first.
type Searcher interface {
	Search(query string) []*transaction.Transaction
}

// Pair is a confirmed transfer: the two legs that share ID and the record
// that replaces them.
type Pair struct {
	ID     string
	Legs   [2]*transaction.Transaction
	Merged *transaction.Transaction
}

type Result struct {
	Transactions []*transaction.Transaction
	Pairs        []Pair
}

type Option func(*Detector)

// WithIDFunc replaces the transfer id generator.
func WithIDFunc(fn func() string) Option {
	return func(d *Detector) { d.newID = fn }
}

type Detector struct {
	searcher Searcher
	newID    func() string
}

func NewDetector(searcher Searcher, opts ...Option) *Detector {
	d := &Detector{
		searcher: searcher,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Detect pairs withdrawals and deposits that represent one internal transfer
// and merges each pair into a single transfer record at the position of its
// earlier leg. txs must be sorted by date and is not modified.
func (d *Detector) Detect(txs []*transaction.Transaction) Result {
	work := make([]*transaction.Transaction, len(txs))
	for i, tx := range txs {
		work[i] = tx.Clone()
	}

	var res Result

	paired := make(map[*transaction.Transaction]bool)

	for i, t1 := range work {
		if paired[t1] {
			continue
		}

		if t1.TransferID != "" {
			res.Transactions = append(res.Transactions, t1)
			continue
		}

		pair, ok := d.match(t1, work[i+1:])
		if !ok {
			res.Transactions = append(res.Transactions, t1)
			continue
		}

		paired[pair.Legs[1]] = true
		res.Pairs = append(res.Pairs, pair)
		res.Transactions = append(res.Transactions, pair.Merged)
	}

	return res
}

func (d *Detector) match(t1 *transaction.Transaction, rest []*transaction.Transaction) (Pair, bool) {
	firstSimilar := sync.OnceValue(func() bool {
		return LooksLikeTransfer(d.nearest(t1))
	})

	for _, t2 := range rest {
		if daysBetween(t1.Date, t2.Date) > WindowDays {
			break
		}

		if t2.TransferID != "" {
			continue
		}

		if !Candidates(t1, t2) || !d.confirmed(t1, t2, firstSimilar) {
			continue
		}

		id := d.newID()
		t1.TransferID = id
		t2.TransferID = id

		if t1.SourceAccount == nil {
			t1.SourceAccount = t2.SourceAccount
			t2.DestinationAccount = t1.DestinationAccount
		} else {
			t1.DestinationAccount = t2.DestinationAccount
			t2.SourceAccount = t1.SourceAccount
		}

		return Pair{
			ID:     id,
			Legs:   [2]*transaction.Transaction{t1, t2},
			Merged: merge(t1, t2),
		}, true
	}

	return Pair{}, false
}

// Candidates reports whether two transactions could be the legs of one
// transfer, before any similarity confirmation.
func Candidates(t1, t2 *transaction.Transaction) bool {
	if !isLeg(t1.Type) || !isLeg(t2.Type) || t1.Type == t2.Type {
		return false
	}

	if !t1.Amount.Equal(t2.Amount) {
		return false
	}

	open := (t1.SourceAccount == nil && t2.DestinationAccount == nil) ||
		(t1.DestinationAccount == nil && t2.SourceAccount == nil)
	if !open {
		return false
	}

	return !transaction.SameAccount(t1.SourceAccount, t2.DestinationAccount) ||
		!transaction.SameAccount(t1.DestinationAccount, t2.SourceAccount)
}

// confirmed accepts a candidate pair when both legs look like transfers, or
// when both of their nearest ledger neighbours do. firstSimilar is the
// neighbour verdict for t1, shared across all of t1's candidates.
func (d *Detector) confirmed(t1, t2 *transaction.Transaction, firstSimilar func() bool) bool {
	if LooksLikeTransfer(t1) && LooksLikeTransfer(t2) {
		return true
	}

	if d.searcher == nil {
		return false
	}

	return firstSimilar() && LooksLikeTransfer(d.nearest(t2))
}

func (d *Detector) nearest(tx *transaction.Transaction) *transaction.Transaction {
	similar := d.searcher.Search(tx.Description)
	if len(similar) == 0 {
		return nil
	}

	return similar[0]
}

// LooksLikeTransfer checks the payment type, the category name and the type.
func LooksLikeTransfer(tx *transaction.Transaction) bool {
	if tx == nil {
		return false
	}

	if strings.EqualFold(string(tx.PaymentType), string(transaction.PaymentTransfer)) {
		return true
	}

	if tx.Category != nil && strings.EqualFold(tx.Category.Name, transaction.CategoryTransfer) {
		return true
	}

	return tx.Type == transaction.TypeTransfer
}

func merge(t1, t2 *transaction.Transaction) *transaction.Transaction {
	m := t1.Clone()
	m.Type = transaction.TypeTransfer
	m.Amount = t1.Amount.Abs()
	m.Date = t1.Date

	first := strings.TrimSpace(t1.Description)
	second := strings.TrimSpace(t2.Description)

	m.Description = first
	if first != second {
		m.Description = first + "\n" + second
	}

	return m
}

func isLeg(t transaction.Type) bool {
	return t == transaction.TypeDeposit || t == transaction.TypeWithdrawal
}

// daysBetween counts whole days from a to b, truncating partial days.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
