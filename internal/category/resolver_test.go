package category_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/category"
	"github.com/MrJamesThe3rd/ledgersync/internal/reference"
	"github.com/MrJamesThe3rd/ledgersync/internal/similarity"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

var canonical = []transaction.Category{
	{ID: "1", Name: "Transfer"},
	{ID: "2", Name: "others"},
	{ID: "3", Name: "Groceries"},
	{ID: "4", Name: "Streaming"},
}

var ledger = []*transaction.Transaction{
	{Description: "Netflix monthly", Category: &transaction.Category{ID: "4", Name: "Streaming"}},
	{Description: "Lidl 123"},
	{Description: "Lidl 124", Category: &transaction.Category{ID: "3", Name: "Groceries"}},
}

func newResolver(categories []transaction.Category) *category.Resolver {
	return category.NewResolver(
		reference.NewLookup(reference.Data{Categories: categories}),
		similarity.New(ledger),
	)
}

func TestResolver_Resolve(t *testing.T) {
	type testCase struct {
		name       string
		categories []transaction.Category
		tx         *transaction.Transaction
		want       transaction.Category
	}

	tests := []testCase{
		{
			name:       "HintMatchesCanonical",
			categories: canonical,
			tx:         &transaction.Transaction{Category: &transaction.Category{Name: "GROCERIES"}},
			want:       transaction.Category{ID: "3", Name: "Groceries"},
		},
		{
			name:       "HintKeptWhenUnknown",
			categories: canonical,
			tx:         &transaction.Transaction{Category: &transaction.Category{Name: "Pets"}},
			want:       transaction.Category{Name: "Pets"},
		},
		{
			name:       "HintBeatsTransfer",
			categories: canonical,
			tx: &transaction.Transaction{
				TransferID: "x",
				Category:   &transaction.Category{Name: "Streaming"},
			},
			want: transaction.Category{ID: "4", Name: "Streaming"},
		},
		{
			name:       "Transfer",
			categories: canonical,
			tx:         &transaction.Transaction{TransferID: "x", Description: "Netflix monthly"},
			want:       transaction.Category{ID: "1", Name: "Transfer"},
		},
		{
			name: "TransferSynthesized",
			tx:   &transaction.Transaction{TransferID: "x"},
			want: transaction.Category{Name: "Transfer"},
		},
		{
			name:       "InheritedFromSimilar",
			categories: canonical,
			tx:         &transaction.Transaction{Description: "NETFLIX MONTHLY"},
			want:       transaction.Category{ID: "4", Name: "Streaming"},
		},
		{
			name:       "SkipsSimilarWithoutCategory",
			categories: canonical,
			tx:         &transaction.Transaction{Description: "Lidl 123"},
			want:       transaction.Category{ID: "3", Name: "Groceries"},
		},
		{
			name:       "OthersCaseInsensitive",
			categories: canonical,
			tx:         &transaction.Transaction{Description: "Salary"},
			want:       transaction.Category{ID: "2", Name: "others"},
		},
		{
			name: "OthersSynthesized",
			tx:   &transaction.Transaction{Description: "Salary"},
			want: transaction.Category{Name: "Others"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newResolver(tt.categories).Resolve(tt.tx)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestResolver_Apply_Totality(t *testing.T) {
	txs := []*transaction.Transaction{
		{Description: "Salary"},
		{Description: "Netflix monthly"},
		{Description: ""},
		{TransferID: "t-1"},
	}

	out := newResolver(nil).Apply(txs)

	require.Len(t, out, len(txs))

	for i, tx := range out {
		require.NotNil(t, tx.Category, "transaction %d", i)
		assert.Nil(t, txs[i].Category, "input is not modified")
	}

	assert.Equal(t, "Others", out[0].Category.Name)
	assert.Equal(t, "Streaming", out[1].Category.Name)
	assert.Equal(t, "Others", out[2].Category.Name)
	assert.Equal(t, "Transfer", out[3].Category.Name)
}

func TestResolver_Apply_Idempotent(t *testing.T) {
	r := newResolver(canonical)

	txs := []*transaction.Transaction{
		{Description: "Salary"},
		{Description: "Lidl 124"},
		{Category: &transaction.Category{Name: "Pets"}},
		{TransferID: "t-1"},
		{Category: &transaction.Category{ID: "99", Name: "Custom"}},
	}

	once := r.Apply(txs)
	twice := r.Apply(once)

	require.Len(t, twice, len(once))

	for i := range once {
		assert.Equal(t, *once[i].Category, *twice[i].Category)
	}

	assert.Equal(t, transaction.Category{ID: "99", Name: "Custom"}, *once[4].Category, "resolved category is kept")
}
