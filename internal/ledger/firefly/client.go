// Package firefly talks to the Firefly III REST API.
package firefly

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
	DefaultURL      = "http://localhost:9595/api"
	DefaultPageSize = 50

	noDescription = "No description"
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
			h.Set("Authorization", "Bearer "+auth.Token)
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
	items, err := getAll[accountAttributes](ctx, c, auth, "/v1/accounts")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]transaction.Account, len(items))
	for i, it := range items {
		accounts[i] = transaction.Account{ID: string(it.ID), Name: it.Attributes.Name, Type: it.Attributes.Type}
	}

	return accounts, nil
}

func (c *Client) Categories(ctx context.Context, auth ledger.Auth) ([]transaction.Category, error) {
	items, err := getAll[categoryAttributes](ctx, c, auth, "/v1/categories")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]transaction.Category, len(items))
	for i, it := range items {
		categories[i] = transaction.Category{ID: string(it.ID), Name: it.Attributes.Name}
	}

	return categories, nil
}

func (c *Client) Currencies(ctx context.Context, auth ledger.Auth) ([]transaction.Currency, error) {
	items, err := getAll[currencyAttributes](ctx, c, auth, "/v1/currencies")
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}

	currencies := make([]transaction.Currency, len(items))
	for i, it := range items {
		currencies[i] = transaction.Currency{ID: string(it.ID), Code: it.Attributes.Code}
	}

	return currencies, nil
}

// Transactions returns the first split of every transaction group. Splits
// carry their own names, so the reference data is not needed.
func (c *Client) Transactions(ctx context.Context, auth ledger.Auth, _ reference.Data) ([]*transaction.Transaction, error) {
	items, err := getAll[groupAttributes](ctx, c, auth, "/v1/transactions")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, 0, len(items))

	for _, it := range items {
		if len(it.Attributes.Transactions) == 0 {
			continue
		}

		txs = append(txs, fromSplit(string(it.ID), it.Attributes.Transactions[0]))
	}

	return txs, nil
}

// Submit stores transactions one by one and stops at the first failure.
func (c *Client) Submit(ctx context.Context, auth ledger.Auth, txs []*transaction.Transaction) error {
	for i, tx := range txs {
		body := storeRequest{Transactions: []split{toSplit(tx)}}

		c.log.Debug("creating transaction", "index", i, "date", tx.Date, "amount", tx.Amount, "description", tx.Description)

		if err := c.req.Do(ctx, auth, http.MethodPost, c.baseURL+"/v1/transactions", body, nil); err != nil {
			var apiErr *ledger.APIError
			if errors.As(err, &apiErr) {
				c.log.Error("failed to create firefly transaction",
					"status", apiErr.Status, "code", apiErr.Code, "body", apiErr.Body)
			}

			return fmt.Errorf("create transaction %d of %d: %w", i+1, len(txs), err)
		}
	}

	return nil
}

// getAll follows Firefly's page based pagination until the last page.
func getAll[T any](ctx context.Context, c *Client, auth ledger.Auth, path string) ([]resource[T], error) {
	var all []resource[T]

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(c.pageSize))

		var resp pagedResponse[T]
		if err := c.req.Do(ctx, auth, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		all = append(all, resp.Data...)

		p := resp.Meta.Pagination
		if p.CurrentPage >= p.TotalPages || len(resp.Data) == 0 {
			return all, nil
		}
	}
}

func fromSplit(groupID string, s split) *transaction.Transaction {
	tx := &transaction.Transaction{
		ID:          groupID,
		Amount:      s.Amount.Abs(),
		Type:        toType(s.Type),
		Description: s.Description,
		Date:        s.Date,
		Reconciled:  s.Reconciled,
		Tags:        s.Tags,
	}

	if s.CurrencyID != "" || s.CurrencyCode != "" {
		tx.Currency = &transaction.Currency{ID: string(s.CurrencyID), Code: s.CurrencyCode}
	}

	if s.SourceID != "" || s.SourceName != "" {
		tx.SourceAccount = &transaction.Account{ID: string(s.SourceID), Name: s.SourceName, Type: s.SourceType}
	}

	if s.DestinationID != "" || s.DestinationName != "" {
		tx.DestinationAccount = &transaction.Account{ID: string(s.DestinationID), Name: s.DestinationName, Type: s.DestinationType}
	}

	if s.CategoryName != "" {
		tx.Category = &transaction.Category{ID: string(s.CategoryID), Name: s.CategoryName}
	}

	return tx
}

func toSplit(tx *transaction.Transaction) split {
	s := split{
		Type:         fromType(tx.Type),
		Date:         tx.Date,
		Amount:       tx.Amount,
		Description:  tx.Description,
		CategoryName: tx.CategoryName(),
		Reconciled:   tx.Reconciled,
		Tags:         tx.Tags,
	}

	if strings.TrimSpace(s.Description) == "" {
		s.Description = noDescription
	}

	if tx.Currency != nil {
		s.CurrencyID = id(tx.Currency.ID)
	}

	if tx.SourceAccount != nil {
		s.SourceID = id(tx.SourceAccount.ID)
	}

	if tx.DestinationAccount != nil {
		s.DestinationID = id(tx.DestinationAccount.ID)
	}

	return s
}

func toType(t string) transaction.Type {
	switch t {
	case "withdrawal":
		return transaction.TypeWithdrawal
	case "deposit":
		return transaction.TypeDeposit
	case "transfer":
		return transaction.TypeTransfer
	default:
		return transaction.TypeOther
	}
}

func fromType(t transaction.Type) string {
	switch t {
	case transaction.TypeWithdrawal, transaction.TypeDeposit, transaction.TypeTransfer:
		return string(t)
	default:
		return ""
	}
}
