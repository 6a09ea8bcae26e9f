package firefly

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// id accepts both JSON strings and numbers. Firefly returns strings but
// older instances and some proxies send numbers.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*i = id(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	*i = id(n.String())

	return nil
}

type resource[T any] struct {
	ID         id `json:"id"`
	Attributes T  `json:"attributes"`
}

type pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type pagedResponse[T any] struct {
	Data []resource[T] `json:"data"`
	Meta struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

type accountAttributes struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type categoryAttributes struct {
	Name string `json:"name"`
}

type currencyAttributes struct {
	Code string `json:"code"`
}

type groupAttributes struct {
	Transactions []split `json:"transactions"`
}

// split is a single journal line, used for both reading and storing.
type split struct {
	Type            string          `json:"type,omitempty"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	CurrencyID      id              `json:"currency_id,omitempty"`
	CurrencyCode    string          `json:"currency_code,omitempty"`
	SourceID        id              `json:"source_id,omitempty"`
	SourceName      string          `json:"source_name,omitempty"`
	SourceType      string          `json:"source_type,omitempty"`
	DestinationID   id              `json:"destination_id,omitempty"`
	DestinationName string          `json:"destination_name,omitempty"`
	DestinationType string          `json:"destination_type,omitempty"`
	CategoryID      id              `json:"category_id,omitempty"`
	CategoryName    string          `json:"category_name,omitempty"`
	Reconciled      bool            `json:"reconciled"`
	Tags            []string        `json:"tags"`
}

type storeRequest struct {
	ErrorIfDuplicateHash bool    `json:"error_if_duplicate_hash"`
	ApplyRules           bool    `json:"apply_rules"`
	Transactions         []split `json:"transactions"`
}
