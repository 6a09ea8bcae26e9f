// Package similarity is a fuzzy description index over the destination ledger.
//
// A description is scored against a query as the lower of two distances, both
// in [0,1] with 0 meaning identical: an approximate substring alignment that
// penalizes edits and a late match start, and the normalized edit distance
// between the whole strings. Only results at or under the threshold are
// returned, best first.
package similarity

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

const (
	DefaultThreshold = 0.7
	DefaultMaxLength = 500

	// Characters of offset that cost a full point of score.
	locationDistance = 100
)

type Option func(*Index)

// WithThreshold sets the highest score still considered a match.
func WithThreshold(t float64) Option {
	return func(i *Index) { i.threshold = t }
}

// WithMaxLength caps how many characters of each string are compared.
func WithMaxLength(n int) Option {
	return func(i *Index) { i.maxLength = n }
}

type entry struct {
	tx   *transaction.Transaction
	text []rune
}

// Index is read-only after New and safe for concurrent Search calls.
type Index struct {
	entries   []entry
	threshold float64
	maxLength int
}

func New(txs []*transaction.Transaction, opts ...Option) *Index {
	idx := &Index{
		threshold: DefaultThreshold,
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(idx)
	}

	idx.entries = make([]entry, 0, len(txs))
	for _, tx := range txs {
		idx.entries = append(idx.entries, entry{tx: tx, text: idx.prepare(tx.Description)})
	}

	return idx
}

// Len returns the number of indexed transactions.
func (i *Index) Len() int {
	return len(i.entries)
}

// Match is a search hit with its score.
type Match struct {
	Transaction *transaction.Transaction
	Score       float64
}

// Matches returns every indexed transaction scoring at or under the
// threshold, best first. Ties keep index order.
func (i *Index) Matches(query string) []Match {
	pattern := i.prepare(query)
	if len(pattern) == 0 {
		return nil
	}

	var out []Match

	for _, e := range i.entries {
		s := score(pattern, e.text)
		if s <= i.threshold {
			out = append(out, Match{Transaction: e.tx, Score: s})
		}
	}

	slices.SortStableFunc(out, func(a, b Match) int {
		return cmp.Compare(a.Score, b.Score)
	})

	return out
}

// Search returns matching transactions, most similar first.
func (i *Index) Search(query string) []*transaction.Transaction {
	matches := i.Matches(query)
	if len(matches) == 0 {
		return nil
	}

	txs := make([]*transaction.Transaction, len(matches))
	for j, m := range matches {
		txs[j] = m.Transaction
	}

	return txs
}

func (i *Index) prepare(s string) []rune {
	r := []rune(strings.ToLower(strings.TrimSpace(s)))
	if i.maxLength > 0 && len(r) > i.maxLength {
		r = r[:i.maxLength]
	}

	return r
}

func score(pattern, text []rune) float64 {
	return min(alignment(pattern, text), normalizedDistance(pattern, text))
}

func normalizedDistance(a, b []rune) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}

	return float64(levenshtein.ComputeDistance(string(a), string(b))) / float64(longest)
}

// alignment finds the substring of text with the fewest edits against pattern
// (semi-global edit distance) and scores it by edit ratio plus start offset.
func alignment(pattern, text []rune) float64 {
	m := len(pattern)

	col := make([]int, m+1)
	start := make([]int, m+1)

	for k := range col {
		col[k] = k
	}

	best, bestStart := col[m], 0

	for j := 1; j <= len(text); j++ {
		diag, diagStart := col[0], start[0]
		col[0], start[0] = 0, j

		for k := 1; k <= m; k++ {
			cost := 1
			if pattern[k-1] == text[j-1] {
				cost = 0
			}

			d, s := diag+cost, diagStart
			if col[k]+1 < d {
				d, s = col[k]+1, start[k]
			}

			if col[k-1]+1 < d {
				d, s = col[k-1]+1, start[k-1]
			}

			diag, diagStart = col[k], start[k]
			col[k], start[k] = d, s
		}

		if col[m] < best {
			best, bestStart = col[m], start[m]
		}
	}

	return min(1, float64(best)/float64(m)+float64(bestStart)/locationDistance)
}
