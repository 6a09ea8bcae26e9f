// Package reference holds the destination ledger's accounts, currencies and
// categories as typed lookup tables.
package reference

import (
	"strings"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

// Data is the reference snapshot fetched from a destination ledger.
type Data struct {
	Accounts   []transaction.Account
	Currencies []transaction.Currency
	Categories []transaction.Category
}

// Lookup resolves names and codes against Data. The first entry wins on duplicate keys.
type Lookup struct {
	accounts   map[string]*transaction.Account
	currencies map[string]*transaction.Currency
	categories map[string]*transaction.Category
}

func NewLookup(data Data) *Lookup {
	l := &Lookup{
		accounts:   make(map[string]*transaction.Account, len(data.Accounts)),
		currencies: make(map[string]*transaction.Currency, len(data.Currencies)),
		categories: make(map[string]*transaction.Category, len(data.Categories)),
	}

	for i := range data.Accounts {
		a := data.Accounts[i]
		if _, ok := l.accounts[a.Name]; !ok {
			l.accounts[a.Name] = &a
		}
	}

	for i := range data.Currencies {
		c := data.Currencies[i]
		if _, ok := l.currencies[c.Code]; !ok {
			l.currencies[c.Code] = &c
		}
	}

	for i := range data.Categories {
		c := data.Categories[i]

		key := categoryKey(c.Name)
		if _, ok := l.categories[key]; !ok {
			l.categories[key] = &c
		}
	}

	return l
}

// Account matches by exact name.
func (l *Lookup) Account(name string) (*transaction.Account, bool) {
	a, ok := l.accounts[name]
	return a, ok
}

// Currency matches by exact code.
func (l *Lookup) Currency(code string) (*transaction.Currency, bool) {
	c, ok := l.currencies[code]
	return c, ok
}

// Category matches by name, ignoring case.
func (l *Lookup) Category(name string) (*transaction.Category, bool) {
	c, ok := l.categories[categoryKey(name)]
	return c, ok
}

func categoryKey(name string) string {
	return strings.ToLower(name)
}
