// Package wallet talks to the BudgetBakers Wallet REST API.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
	"github.com/MrJamesThe3rd/ledgersync/internal/reference"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

const (
	DefaultURL      = "https://api.budgetbakers.com/api/v1"
	DefaultPageSize = 100

	// BulkSize is the most records sent in one records-bulk call.
	BulkSize = 100
)

type Config struct {
	URL      string
	PageSize int
	Timeout  time.Duration
	Logger   *slog.Logger
}

type Client struct {
	baseURL  string
	pageSize int
	req      *ledger.Requester
	log      *slog.Logger
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		pageSize: cfg.PageSize,
		log:      cfg.Logger,
		req: ledger.NewRequester(cfg.Timeout, func(h http.Header, auth ledger.Auth) {
			h.Set("X-User", auth.User)
			h.Set("X-Token", auth.Token)
		}),
	}

	if c.baseURL == "" {
		c.baseURL = DefaultURL
	}

	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}

	if c.log == nil {
		c.log = slog.Default()
	}

	return c
}

func (c *Client) Accounts(ctx context.Context, auth ledger.Auth) ([]transaction.Account, error) {
	items, err := getAll[account](ctx, c, auth, "/accounts")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]transaction.Account, len(items))
	for i, it := range items {
		accounts[i] = transaction.Account{ID: it.ID, Name: it.Name}
	}

	return accounts, nil
}

func (c *Client) Categories(ctx context.Context, auth ledger.Auth) ([]transaction.Category, error) {
	items, err := getAll[category](ctx, c, auth, "/categories")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]transaction.Category, len(items))
	for i, it := range items {
		categories[i] = transaction.Category{ID: it.ID, Name: it.Name}
	}

	return categories, nil
}

func (c *Client) Currencies(ctx context.Context, auth ledger.Auth) ([]transaction.Currency, error) {
	items, err := getAll[currency](ctx, c, auth, "/currencies")
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}

	currencies := make([]transaction.Currency, len(items))
	for i, it := range items {
		currencies[i] = transaction.Currency{ID: it.ID, Code: it.Code}
	}

	return currencies, nil
}

// Transactions returns every record with accounts, currencies and category
// names resolved against data, which the caller has already fetched.
func (c *Client) Transactions(ctx context.Context, auth ledger.Auth, data reference.Data) ([]*transaction.Transaction, error) {
	records, err := getAll[record](ctx, c, auth, "/records")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	m := newMapper(data.Accounts, data.Currencies, data.Categories)

	txs := make([]*transaction.Transaction, len(records))
	for i, rec := range records {
		txs[i] = m.transaction(rec)
	}

	return txs, nil
}

// Submit sends records in bulk batches. A transfer becomes two records
// sharing its transfer id.
func (c *Client) Submit(ctx context.Context, auth ledger.Auth, txs []*transaction.Transaction) error {
	records := make([]record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, toRecords(tx)...)
	}

	for start := 0; start < len(records); start += BulkSize {
		end := min(start+BulkSize, len(records))

		c.log.Debug("creating records", "from", start, "to", end, "total", len(records))

		if err := c.req.Do(ctx, auth, http.MethodPost, c.baseURL+"/records-bulk", records[start:end], nil); err != nil {
			var apiErr *ledger.APIError
			if errors.As(err, &apiErr) {
				c.log.Error("failed to create wallet records",
					"status", apiErr.Status, "code", apiErr.Code, "body", apiErr.Body)
			}

			return fmt.Errorf("create records %d-%d of %d: %w", start+1, end, len(records), err)
		}
	}

	return nil
}

// getAll pages with offset and limit until a short page comes back.
func getAll[T any](ctx context.Context, c *Client, auth ledger.Auth, path string) ([]T, error) {
	var all []T

	for offset := 0; ; offset += c.pageSize {
		q := url.Values{}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(c.pageSize))

		var page []T
		if err := c.req.Do(ctx, auth, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}

		all = append(all, page...)

		if len(page) < c.pageSize {
			return all, nil
		}
	}
}
