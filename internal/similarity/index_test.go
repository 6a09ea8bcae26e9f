package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/similarity"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

func ledger(descriptions ...string) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, len(descriptions))
	for i, d := range descriptions {
		txs[i] = &transaction.Transaction{Description: d}
	}

	return txs
}

func descriptions(txs []*transaction.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Description
	}

	return out
}

func TestIndex_Search(t *testing.T) {
	type args struct {
		ledger []string
		query  string
		opts   []similarity.Option
	}

	type testCase struct {
		name string
		args args
		want []string
	}

	tests := []testCase{
		{
			name: "RankedBestFirst",
			args: args{
				ledger: []string{"Morning coffee", "Coffee shop downtown", "Coffee"},
				query:  "coffee",
			},
			want: []string{"Coffee shop downtown", "Coffee", "Morning coffee"},
		},
		{
			name: "ToleratesTypos",
			args: args{
				ledger: []string{"zzz", "transfer to saving account"},
				query:  "Transfer to savings",
			},
			want: []string{"transfer to saving account"},
		},
		{
			name: "NothingSimilar",
			args: args{
				ledger: []string{"Electricity bill", "Rent"},
				query:  "qwxz",
			},
			want: nil,
		},
		{
			name: "BlankQuery",
			args: args{
				ledger: []string{"Rent"},
				query:  "   ",
			},
			want: nil,
		},
		{
			name: "StrictThreshold",
			args: args{
				ledger: []string{"Rent", "Rent payment"},
				query:  "rent",
				opts:   []similarity.Option{similarity.WithThreshold(0)},
			},
			want: []string{"Rent", "Rent payment"},
		},
		{
			name: "MaxLengthTruncatesBothSides",
			args: args{
				ledger: []string{"abcdef"},
				query:  "abcxyz",
				opts:   []similarity.Option{similarity.WithThreshold(0.1), similarity.WithMaxLength(3)},
			},
			want: []string{"abcdef"},
		},
		{
			name: "WithoutTruncation",
			args: args{
				ledger: []string{"abcdef"},
				query:  "abcxyz",
				opts:   []similarity.Option{similarity.WithThreshold(0.1)},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := similarity.New(ledger(tt.args.ledger...), tt.args.opts...)

			got := idx.Search(tt.args.query)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}

			assert.Equal(t, tt.want, descriptions(got))
		})
	}
}

func TestIndex_Matches_Scores(t *testing.T) {
	idx := similarity.New(ledger("Supermarket Lidl", "lidl"))

	matches := idx.Matches("LIDL")
	require.Len(t, matches, 2)

	assert.Equal(t, "lidl", matches[0].Transaction.Description)
	assert.InDelta(t, 0, matches[0].Score, 1e-9)
	assert.InDelta(t, 0.12, matches[1].Score, 1e-9, "exact substring starting at offset 12")
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_Search_ReturnsIndexedPointers(t *testing.T) {
	txs := ledger("Gym membership")
	idx := similarity.New(txs)

	got := idx.Search("gym")
	require.Len(t, got, 1)
	assert.Same(t, txs[0], got[0])
}
