package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dbTimeout  = 5 * time.Second
	runTimeout = 10 * time.Minute
)

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// RunCtx bounds a whole import, ledger round trips included.
func RunCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), runTimeout)
}
