package category

import (
	"github.com/MrJamesThe3rd/ledgersync/internal/reference"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// Searcher returns ledger transactions similar to a description, best first.
type Searcher interface {
	Search(query string) []*transaction.Transaction
}

// Resolver assigns a category to every transaction that lacks a ledger one.
type Resolver struct {
	lookup   *reference.Lookup
	searcher Searcher
}

func NewResolver(lookup *reference.Lookup, searcher Searcher) *Resolver {
	return &Resolver{lookup: lookup, searcher: searcher}
}

// Resolve picks a category for tx, first match wins: the source hint, the
// transfer category for transfers, the category of the most similar ledger
// transaction that has one, and finally the fallback category. It never
// returns nil.
func (r *Resolver) Resolve(tx *transaction.Transaction) *transaction.Category {
	if tx.Category != nil && tx.Category.Name != "" {
		if c, ok := r.lookup.Category(tx.Category.Name); ok {
			return copyOf(c)
		}

		return &transaction.Category{Name: tx.Category.Name}
	}

	if tx.TransferID != "" {
		return r.canonical(transaction.CategoryTransfer)
	}

	if r.searcher != nil {
		for _, similar := range r.searcher.Search(tx.Description) {
			if similar.Category != nil {
				return copyOf(similar.Category)
			}
		}
	}

	return r.canonical(transaction.CategoryOthers)
}

// Apply returns copies of txs where every transaction without a resolved
// category has one. Resolved categories are kept.
func (r *Resolver) Apply(txs []*transaction.Transaction) []*transaction.Transaction {
	out := make([]*transaction.Transaction, len(txs))

	for i, tx := range txs {
		c := tx.Clone()
		if !c.Category.Resolved() {
			c.Category = r.Resolve(tx)
		}

		out[i] = c
	}

	return out
}

func (r *Resolver) canonical(name string) *transaction.Category {
	if c, ok := r.lookup.Category(name); ok {
		return copyOf(c)
	}

	return &transaction.Category{Name: name}
}

func copyOf(c *transaction.Category) *transaction.Category {
	cp := *c
	return &cp
}
