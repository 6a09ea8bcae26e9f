package wallet_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger/wallet"
	"github.com/MrJamesThe3rd/ledgersync/internal/reference"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

type fakeWallet struct {
	mu      sync.Mutex
	records []map[string]any
	offsets []int
	paths   []string
	batches []int
	fail    bool
}

func (f *fakeWallet) router(t *testing.T) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			f.paths = append(f.paths, req.URL.Path)
			f.mu.Unlock()

			if req.Header.Get("X-User") != "me@example.com" || req.Header.Get("X-Token") != "token" {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, req)
		})
	})

	r.Get("/accounts", func(w http.ResponseWriter, req *http.Request) {
		offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))

		f.mu.Lock()
		f.offsets = append(f.offsets, offset)
		f.mu.Unlock()

		all := []string{`{"id":"a1","name":"CGD"}`, `{"id":"a2","name":"Revolut"}`, `{"id":"a3","name":"Cash"}`}
		if offset >= len(all) {
			fmt.Fprint(w, `[]`)
			return
		}

		end := min(offset+2, len(all))
		out := "["
		for i, s := range all[offset:end] {
			if i > 0 {
				out += ","
			}
			out += s
		}
		fmt.Fprint(w, out+"]")
	})

	r.Get("/categories", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id":"c1","name":"Groceries"}]`)
	})

	r.Get("/currencies", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id":"e1","code":"EUR"}]`)
	})

	r.Get("/records", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("offset") != "0" {
			fmt.Fprint(w, `[]`)
			return
		}

		fmt.Fprint(w, `[
			{"currencyId":"e1","accountId":"a1","categoryId":"c1","amount":-12.5,"paymentType":"debit_card","note":"Lidl","date":"2024-03-05T10:00:00Z","recordState":"cleared"},
			{"currencyId":"e1","accountId":"a2","amount":100,"paymentType":"transfer","note":"Top up","date":"2024-03-06T10:00:00Z","recordState":"cleared","transferId":"t1"}
		]`)
	})

	r.Post("/records-bulk", func(w http.ResponseWriter, req *http.Request) {
		if f.fail {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":"INVALID_RECORD","message":"bad"}`)

			return
		}

		var batch []map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&batch))

		f.mu.Lock()
		f.records = append(f.records, batch...)
		f.batches = append(f.batches, len(batch))
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
	})

	return r
}

func newClient(t *testing.T, f *fakeWallet) *wallet.Client {
	srv := httptest.NewServer(f.router(t))
	t.Cleanup(srv.Close)

	return wallet.NewClient(wallet.Config{URL: srv.URL, PageSize: 2})
}

var auth = ledger.Auth{User: "me@example.com", Token: "token"}

func TestClient_Accounts_Paginates(t *testing.T) {
	f := &fakeWallet{}

	accounts, err := newClient(t, f).Accounts(context.Background(), auth)
	require.NoError(t, err)

	assert.Equal(t, []transaction.Account{
		{ID: "a1", Name: "CGD"},
		{ID: "a2", Name: "Revolut"},
		{ID: "a3", Name: "Cash"},
	}, accounts)
	assert.Equal(t, []int{0, 2}, f.offsets, "a short page ends pagination")
}

func TestClient_Transactions(t *testing.T) {
	f := &fakeWallet{}
	data := reference.Data{
		Accounts:   []transaction.Account{{ID: "a1", Name: "CGD"}, {ID: "a2", Name: "Revolut"}},
		Currencies: []transaction.Currency{{ID: "e1", Code: "EUR"}},
		Categories: []transaction.Category{{ID: "c1", Name: "Groceries"}},
	}

	txs, err := newClient(t, f).Transactions(context.Background(), auth, data)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, []string{"/records", "/records"}, f.paths, "reference lists are not fetched again")

	lidl := txs[0]
	assert.Equal(t, transaction.TypeWithdrawal, lidl.Type)
	assert.True(t, decimal.RequireFromString("12.5").Equal(lidl.Amount))
	assert.Equal(t, &transaction.Account{ID: "a1", Name: "CGD"}, lidl.SourceAccount)
	assert.Nil(t, lidl.DestinationAccount)
	assert.Equal(t, &transaction.Category{ID: "c1", Name: "Groceries"}, lidl.Category)
	assert.Equal(t, &transaction.Currency{ID: "e1", Code: "EUR"}, lidl.Currency)
	assert.Equal(t, transaction.PaymentDebitCard, lidl.PaymentType)
	assert.Equal(t, "Lidl", lidl.Description)

	topUp := txs[1]
	assert.Equal(t, transaction.TypeTransfer, topUp.Type)
	assert.Equal(t, "t1", topUp.TransferID)
	assert.Equal(t, &transaction.Account{ID: "a2", Name: "Revolut"}, topUp.DestinationAccount)
	assert.Nil(t, topUp.Category)
}

func TestClient_Forbidden(t *testing.T) {
	_, err := newClient(t, &fakeWallet{}).Categories(context.Background(), ledger.Auth{User: "me@example.com"})

	var apiErr *ledger.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestClient_Submit(t *testing.T) {
	f := &fakeWallet{}
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	eur := &transaction.Currency{ID: "e1", Code: "EUR"}

	txs := []*transaction.Transaction{
		{
			Type:               transaction.TypeTransfer,
			Amount:             decimal.RequireFromString("250"),
			Date:               date,
			Currency:           eur,
			SourceAccount:      &transaction.Account{ID: "a1", Name: "CGD"},
			DestinationAccount: &transaction.Account{ID: "a2", Name: "Revolut"},
			Category:           &transaction.Category{ID: "c9", Name: "Transfer"},
			TransferID:         "pair-1",
			PaymentType:        transaction.PaymentTransfer,
			Description:        "Savings",
		},
		{
			Type:               transaction.TypeDeposit,
			Amount:             decimal.RequireFromString("10.20"),
			Date:               date,
			Currency:           eur,
			DestinationAccount: &transaction.Account{ID: "a3", Name: "Cash"},
			Category:           &transaction.Category{Name: "Gifts"},
			Description:        "Gift",
		},
	}

	require.NoError(t, newClient(t, f).Submit(context.Background(), auth, txs))
	require.Len(t, f.records, 3)

	out, in, gift := f.records[0], f.records[1], f.records[2]

	assert.Equal(t, "a1", out["accountId"])
	assert.Equal(t, float64(-250), out["amount"])
	assert.Equal(t, "a2", in["accountId"])
	assert.Equal(t, float64(250), in["amount"])
	assert.Equal(t, "pair-1", out["transferId"])
	assert.Equal(t, "pair-1", in["transferId"])
	assert.Equal(t, "cleared", out["recordState"])
	assert.Equal(t, "c9", out["categoryId"])

	assert.Equal(t, "a3", gift["accountId"])
	assert.Equal(t, 10.2, gift["amount"])
	assert.NotContains(t, gift, "categoryId", "unresolved categories carry no id")
	assert.NotContains(t, gift, "transferId")
	assert.Equal(t, "e1", gift["currencyId"])
	assert.Equal(t, "Gift", gift["note"])
}

func TestClient_Submit_Batches(t *testing.T) {
	f := &fakeWallet{}

	txs := make([]*transaction.Transaction, wallet.BulkSize+1)
	for i := range txs {
		txs[i] = &transaction.Transaction{
			Type:          transaction.TypeWithdrawal,
			Amount:        decimal.NewFromInt(int64(i + 1)),
			SourceAccount: &transaction.Account{ID: "a1"},
		}
	}

	require.NoError(t, newClient(t, f).Submit(context.Background(), auth, txs))
	assert.Equal(t, []int{wallet.BulkSize, 1}, f.batches)
}

func TestClient_Submit_Failure(t *testing.T) {
	f := &fakeWallet{fail: true}

	err := newClient(t, f).Submit(context.Background(), auth, []*transaction.Transaction{
		{Type: transaction.TypeWithdrawal, Amount: decimal.NewFromInt(1), SourceAccount: &transaction.Account{ID: "a1"}},
	})

	var apiErr *ledger.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_RECORD", apiErr.Code)
	assert.Empty(t, f.records)
}
