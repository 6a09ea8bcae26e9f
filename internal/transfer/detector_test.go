package transfer_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/similarity"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
	"github.com/MrJamesThe3rd/ledgersync/internal/transfer"
)

var (
	day0     = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	checking = &transaction.Account{ID: "1", Name: "Checking"}
	savings  = &transaction.Account{ID: "2", Name: "Savings"}
)

type searcherFunc func(query string) []*transaction.Transaction

func (f searcherFunc) Search(query string) []*transaction.Transaction { return f(query) }

func sequentialIDs() transfer.Option {
	n := 0

	return transfer.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("t-%d", n)
	})
}

func withdrawal(amount string, from *transaction.Account, days int) *transaction.Transaction {
	return &transaction.Transaction{
		Type:          transaction.TypeWithdrawal,
		PaymentType:   transaction.PaymentTransfer,
		Amount:        decimal.RequireFromString(amount),
		SourceAccount: from,
		Description:   "Transfer out",
		Date:          day0.AddDate(0, 0, days),
	}
}

func deposit(amount string, to *transaction.Account, days int) *transaction.Transaction {
	return &transaction.Transaction{
		Type:               transaction.TypeDeposit,
		PaymentType:        transaction.PaymentTransfer,
		Amount:             decimal.RequireFromString(amount),
		DestinationAccount: to,
		Description:        "Transfer in",
		Date:               day0.AddDate(0, 0, days),
	}
}

func TestDetector_Detect_Pairing(t *testing.T) {
	out := withdrawal("50", checking, 0)
	in := deposit("50", savings, 2)

	res := transfer.NewDetector(nil, sequentialIDs()).Detect([]*transaction.Transaction{out, in})

	require.Len(t, res.Transactions, 1)
	require.Len(t, res.Pairs, 1)

	merged := res.Transactions[0]
	assert.Equal(t, transaction.TypeTransfer, merged.Type)
	assert.True(t, merged.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, checking, merged.SourceAccount)
	assert.Equal(t, savings, merged.DestinationAccount)
	assert.Equal(t, "t-1", merged.TransferID)
	assert.Equal(t, day0, merged.Date)
	assert.Equal(t, "Transfer out\nTransfer in", merged.Description)

	pair := res.Pairs[0]
	assert.Same(t, merged, pair.Merged)
	assert.Equal(t, "t-1", pair.ID)
	assert.Equal(t, pair.ID, pair.Legs[0].TransferID)
	assert.Equal(t, pair.ID, pair.Legs[1].TransferID)
	assert.Equal(t, savings, pair.Legs[0].DestinationAccount)
	assert.Equal(t, checking, pair.Legs[1].SourceAccount)
	assert.True(t, pair.Legs[0].Amount.Abs().Equal(merged.Amount))
	assert.True(t, pair.Legs[1].Amount.Abs().Equal(merged.Amount))

	assert.Empty(t, out.TransferID, "input legs are not modified")
	assert.Empty(t, in.TransferID)
	assert.Nil(t, out.DestinationAccount)
}

func TestDetector_Detect_DepositFirst(t *testing.T) {
	in := deposit("75.20", savings, 0)
	out := withdrawal("75.20", checking, 1)

	res := transfer.NewDetector(nil).Detect([]*transaction.Transaction{in, out})

	require.Len(t, res.Transactions, 1)
	merged := res.Transactions[0]
	assert.Equal(t, checking, merged.SourceAccount)
	assert.Equal(t, savings, merged.DestinationAccount)
	assert.NotEmpty(t, merged.TransferID)
	assert.Equal(t, day0, merged.Date, "merged record keeps the first leg's date")
}

func TestDetector_Detect_Window(t *testing.T) {
	type testCase struct {
		name      string
		gap       time.Duration
		wantPairs int
	}

	tests := []testCase{
		{name: "SameDay", gap: 0, wantPairs: 1},
		{name: "FiveDays", gap: 5 * 24 * time.Hour, wantPairs: 1},
		{name: "FiveDaysAndHours", gap: 5*24*time.Hour + 23*time.Hour, wantPairs: 1},
		{name: "SixDays", gap: 6 * 24 * time.Hour, wantPairs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := withdrawal("50", checking, 0)
			in := deposit("50", savings, 0)
			in.Date = out.Date.Add(tt.gap)

			res := transfer.NewDetector(nil).Detect([]*transaction.Transaction{out, in})

			assert.Len(t, res.Pairs, tt.wantPairs)
			assert.Len(t, res.Transactions, 2-tt.wantPairs)
		})
	}
}

func TestCandidates(t *testing.T) {
	type args struct {
		t1, t2 *transaction.Transaction
	}

	amount := decimal.NewFromInt(10)
	tx := func(typ transaction.Type, src, dst *transaction.Account) *transaction.Transaction {
		return &transaction.Transaction{Type: typ, Amount: amount, SourceAccount: src, DestinationAccount: dst}
	}

	w, d := transaction.TypeWithdrawal, transaction.TypeDeposit

	tests := []struct {
		name string
		args args
		want bool
	}{
		{name: "WithdrawalThenDeposit", args: args{tx(w, checking, nil), tx(d, nil, savings)}, want: true},
		{name: "DepositThenWithdrawal", args: args{tx(d, nil, savings), tx(w, checking, nil)}, want: true},
		{name: "SameType", args: args{tx(w, checking, nil), tx(w, savings, nil)}, want: false},
		{name: "OtherType", args: args{tx(transaction.TypeOther, checking, nil), tx(d, nil, savings)}, want: false},
		{name: "NoAccountsAtAll", args: args{tx(w, nil, nil), tx(d, nil, nil)}, want: false},
		{name: "OneSideUnresolved", args: args{tx(w, checking, nil), tx(d, nil, nil)}, want: true},
		{name: "SameAccountBothSides", args: args{tx(w, checking, nil), tx(d, nil, checking)}, want: false},
		{name: "BothFullySet", args: args{tx(w, checking, savings), tx(d, savings, checking)}, want: false},
		{name: "FirstFullySet", args: args{tx(w, checking, savings), tx(d, nil, nil)}, want: false},
		{name: "SourcesOnBothLegs", args: args{tx(w, checking, nil), tx(d, savings, nil)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transfer.Candidates(tt.args.t1, tt.args.t2))
		})
	}

	t.Run("AmountsDiffer", func(t *testing.T) {
		other := tx(d, nil, savings)
		other.Amount = decimal.RequireFromString("10.01")
		assert.False(t, transfer.Candidates(tx(w, checking, nil), other))
	})
}

func TestDetector_Detect_NearestNeighbour(t *testing.T) {
	ledgerTransfer := &transaction.Transaction{
		Description: "Savings top-up",
		Category:    &transaction.Category{ID: "9", Name: "transfer"},
	}
	ledgerOther := &transaction.Transaction{
		Description: "Groceries",
		Category:    &transaction.Category{ID: "8", Name: "Food"},
	}

	type testCase struct {
		name          string
		searcher      transfer.Searcher
		inDescription string
		wantPairs     int
	}

	tests := []testCase{
		{
			name: "BothNeighboursAreTransfers",
			searcher: searcherFunc(func(string) []*transaction.Transaction {
				return []*transaction.Transaction{ledgerTransfer, ledgerOther}
			}),
			wantPairs: 1,
		},
		{
			name: "OnlyFirstNeighbourCounts",
			searcher: searcherFunc(func(string) []*transaction.Transaction {
				return []*transaction.Transaction{ledgerOther, ledgerTransfer}
			}),
			wantPairs: 0,
		},
		{
			name: "OneSideHasNoNeighbour",
			searcher: searcherFunc(func(q string) []*transaction.Transaction {
				if q == "Savings top-up" {
					return []*transaction.Transaction{ledgerTransfer}
				}

				return nil
			}),
			inDescription: "Unknown",
			wantPairs:     0,
		},
		{
			name:      "RealIndex",
			searcher:  similarity.New([]*transaction.Transaction{ledgerOther, ledgerTransfer}),
			wantPairs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := withdrawal("20", checking, 0)
			out.PaymentType = transaction.PaymentDebitCard
			out.Description = "Savings top-up"

			in := deposit("20", savings, 1)
			in.PaymentType = transaction.PaymentCash
			in.Description = "savings top-up "

			if tt.inDescription != "" {
				in.Description = tt.inDescription
			}

			res := transfer.NewDetector(tt.searcher).Detect([]*transaction.Transaction{out, in})
			assert.Len(t, res.Pairs, tt.wantPairs)
		})
	}
}

func TestDetector_Detect_SearchesEachLegOnce(t *testing.T) {
	ledgerTransfer := &transaction.Transaction{Description: "Savings top-up", Type: transaction.TypeTransfer}
	ledgerOther := &transaction.Transaction{Description: "Groceries", Type: transaction.TypeWithdrawal}

	out := withdrawal("20", checking, 0)
	out.PaymentType = transaction.PaymentDebitCard
	out.Description = "Savings top-up"

	txs := []*transaction.Transaction{out}

	for i := range 3 {
		in := deposit("20", savings, i+1)
		in.PaymentType = transaction.PaymentCash
		in.Description = fmt.Sprintf("Mystery %d", i)
		txs = append(txs, in)
	}

	searches := make(map[string]int)
	searcher := searcherFunc(func(q string) []*transaction.Transaction {
		searches[q]++

		if q == "Savings top-up" {
			return []*transaction.Transaction{ledgerTransfer}
		}

		return []*transaction.Transaction{ledgerOther}
	})

	res := transfer.NewDetector(searcher).Detect(txs)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, map[string]int{
		"Savings top-up": 1,
		"Mystery 0":      1,
		"Mystery 1":      1,
		"Mystery 2":      1,
	}, searches)
}

func TestDetector_Detect_OwnClassification(t *testing.T) {
	out := withdrawal("20", checking, 0)
	out.PaymentType = transaction.PaymentDebitCard
	out.Category = &transaction.Category{Name: "TRANSFER"}

	in := deposit("20", savings, 1)
	in.PaymentType = "Transfer"

	never := searcherFunc(func(string) []*transaction.Transaction {
		t.Fatal("search must not run when both legs look like transfers")
		return nil
	})

	res := transfer.NewDetector(never).Detect([]*transaction.Transaction{out, in})
	assert.Len(t, res.Pairs, 1)
}

func TestDetector_Detect_Description(t *testing.T) {
	out := withdrawal("5", checking, 0)
	out.Description = "  Move money "

	in := deposit("5", savings, 0)
	in.Description = "Move money"

	res := transfer.NewDetector(nil).Detect([]*transaction.Transaction{out, in})

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "Move money", res.Transactions[0].Description)
}

func TestDetector_Detect_OrderAndFirstMatch(t *testing.T) {
	coffee := &transaction.Transaction{Type: transaction.TypeWithdrawal, Amount: decimal.NewFromInt(3), Description: "Coffee", Date: day0}
	out := withdrawal("50", checking, 0)
	in1 := deposit("50", savings, 1)
	in2 := deposit("50", savings, 2)
	existing := withdrawal("50", checking, 2)
	existing.TransferID = "imported"

	res := transfer.NewDetector(nil, sequentialIDs()).Detect(
		[]*transaction.Transaction{coffee, out, in1, existing, in2},
	)

	require.Len(t, res.Transactions, 4)
	assert.Equal(t, "Coffee", res.Transactions[0].Description)
	assert.Equal(t, transaction.TypeTransfer, res.Transactions[1].Type)
	assert.Equal(t, "t-1", res.Transactions[1].TransferID)
	assert.Equal(t, day0, res.Transactions[1].Date)
	assert.Equal(t, "imported", res.Transactions[2].TransferID)
	assert.Equal(t, transaction.TypeWithdrawal, res.Transactions[2].Type)
	assert.Equal(t, transaction.TypeDeposit, res.Transactions[3].Type, "second deposit stays unpaired")
	assert.Empty(t, res.Transactions[3].TransferID)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, day0.AddDate(0, 0, 1), res.Pairs[0].Legs[1].Date)
}
