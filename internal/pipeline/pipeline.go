// Package pipeline runs an import: load statements, reconcile them against
// the destination ledger and submit the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ledgersync/internal/category"
	"github.com/MrJamesThe3rd/ledgersync/internal/history"
	"github.com/MrJamesThe3rd/ledgersync/internal/importer"
	"github.com/MrJamesThe3rd/ledgersync/internal/ledger"
	"github.com/MrJamesThe3rd/ledgersync/internal/normalize"
	"github.com/MrJamesThe3rd/ledgersync/internal/reference"
	"github.com/MrJamesThe3rd/ledgersync/internal/similarity"
	"github.com/MrJamesThe3rd/ledgersync/internal/snapshot"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
	"github.com/MrJamesThe3rd/ledgersync/internal/transfer"
)

var (
	ErrUnknownDestination = errors.New("unknown destination")
	ErrUncategorized      = errors.New("transaction left without category")
)

//go:generate mockgen -source=pipeline.go -destination=pipeline_mock.go -package=pipeline
type Loader interface {
	Load(ctx context.Context, files []importer.File) ([]transaction.Raw, error)
}

type Ledger interface {
	Accounts(ctx context.Context, auth ledger.Auth) ([]transaction.Account, error)
	Currencies(ctx context.Context, auth ledger.Auth) ([]transaction.Currency, error)
	Categories(ctx context.Context, auth ledger.Auth) ([]transaction.Category, error)
	Transactions(ctx context.Context, auth ledger.Auth, data reference.Data) ([]*transaction.Transaction, error)
	Submit(ctx context.Context, auth ledger.Auth, txs []*transaction.Transaction) error
}

type Snapshots interface {
	Write(ctx context.Context, name string, txs []*transaction.Transaction) error
}

type History interface {
	Previously(ctx context.Context, txs []*transaction.Transaction) (fresh, seen []*transaction.Transaction, err error)
	Record(ctx context.Context, run *history.Run, submitted []*transaction.Transaction) error
}

type Params struct {
	Destination ledger.Destination
	Auth        ledger.Auth
	MaxDate     time.Time // Zero disables the cutoff.
	DryRun      bool
	Files       []importer.File
}

type Result struct {
	Preprocessed []*transaction.Transaction
	Transactions []*transaction.Transaction
	Pairs        []transfer.Pair
	// Pending is what was (or, in a dry run, would be) submitted.
	Pending   []*transaction.Transaction
	Skipped   []*transaction.Transaction
	Submitted bool
	Run       *history.Run
}

type Option func(*Pipeline)

// WithHistory records runs. With skipSubmitted, transactions an earlier run
// submitted are left out of the submission.
func WithHistory(h History, skipSubmitted bool) Option {
	return func(p *Pipeline) {
		p.history = h
		p.skipSubmitted = skipSubmitted
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithTransferIDs(fn func() string) Option {
	return func(p *Pipeline) { p.transferOpts = append(p.transferOpts, transfer.WithIDFunc(fn)) }
}

func WithSimilarity(opts ...similarity.Option) Option {
	return func(p *Pipeline) { p.similarityOpts = append(p.similarityOpts, opts...) }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

type Pipeline struct {
	loader    Loader
	ledgers   map[ledger.Destination]Ledger
	snapshots Snapshots

	history       History
	skipSubmitted bool

	log            *slog.Logger
	now            func() time.Time
	transferOpts   []transfer.Option
	similarityOpts []similarity.Option
}

func New(loader Loader, ledgers map[ledger.Destination]Ledger, snapshots Snapshots, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:    loader,
		ledgers:   ledgers,
		snapshots: snapshots,
		log:       slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Pipeline) ledger(dest ledger.Destination) (Ledger, error) {
	l, ok := p.ledgers[dest]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDestination, dest)
	}

	return l, nil
}

// Run executes every stage. A dry run stops short of the submission.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	dest, err := p.ledger(params.Destination)
	if err != nil {
		return nil, err
	}

	run := &history.Run{Destination: string(params.Destination), DryRun: params.DryRun, StartedAt: p.now()}

	res, err := p.run(ctx, dest, params, run)
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
		p.record(ctx, run, nil)

		return nil, err
	}

	submitted := res.Pending
	run.Status = history.StatusSubmitted

	if params.DryRun {
		submitted = nil
		run.Status = history.StatusPreviewed
	}

	p.record(ctx, run, submitted)
	res.Run = run

	return res, nil
}

func (p *Pipeline) run(ctx context.Context, dest Ledger, params Params, run *history.Run) (*Result, error) {
	p.log.Info("loading files", "count", len(params.Files))

	raws, err := p.loader.Load(ctx, params.Files)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	run.Loaded = len(raws)

	slices.SortStableFunc(raws, func(a, b transaction.Raw) int {
		return a.Date.Compare(b.Date)
	})

	raws = cutoff(raws, params.MaxDate)

	data, existing, err := p.fetch(ctx, dest, params.Auth)
	if err != nil {
		return nil, fmt.Errorf("fetch reference data: %w", err)
	}

	lookup := reference.NewLookup(data)
	preprocessed := normalize.New(lookup).All(raws)

	if err := p.snapshots.Write(ctx, snapshot.Preprocessed, preprocessed); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	index := similarity.New(existing, p.similarityOpts...)

	p.log.Info("detecting transfers", "transactions", len(preprocessed), "ledger", index.Len())

	detected := transfer.NewDetector(index, p.transferOpts...).Detect(preprocessed)
	run.Transfers = len(detected.Pairs)

	p.log.Info("setting categories", "transfers", len(detected.Pairs))

	final := category.NewResolver(lookup, index).Apply(detected.Transactions)

	for i, tx := range final {
		if tx.CategoryName() == "" {
			return nil, fmt.Errorf("%w: #%d %q on %s", ErrUncategorized, i, tx.Description, tx.Date.Format(time.DateOnly))
		}
	}

	if err := p.snapshots.Write(ctx, snapshot.Final, final); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	res := &Result{
		Preprocessed: preprocessed,
		Transactions: final,
		Pairs:        detected.Pairs,
		Pending:      final,
	}

	if p.history != nil && p.skipSubmitted {
		fresh, seen, err := p.history.Previously(ctx, final)
		if err != nil {
			return nil, fmt.Errorf("check history: %w", err)
		}

		res.Pending, res.Skipped = fresh, seen
		run.Skipped = len(seen)

		if len(seen) > 0 {
			p.log.Info("skipping previously submitted transactions", "count", len(seen))
		}
	}

	run.Imported = len(res.Pending)

	if params.DryRun {
		p.log.Info("dry run, nothing submitted", "pending", len(res.Pending))
		return res, nil
	}

	if err := p.submit(ctx, dest, params.Auth, res.Pending); err != nil {
		return nil, err
	}

	res.Submitted = true

	return res, nil
}

// Submit sends an already prepared list, typically one a dry run produced.
func (p *Pipeline) Submit(ctx context.Context, destination ledger.Destination, auth ledger.Auth, txs []*transaction.Transaction) (*history.Run, error) {
	dest, err := p.ledger(destination)
	if err != nil {
		return nil, err
	}

	run := &history.Run{
		Destination: string(destination),
		Loaded:      len(txs),
		Imported:    len(txs),
		StartedAt:   p.now(),
	}

	for _, tx := range txs {
		if tx.Type == transaction.TypeTransfer && tx.TransferID != "" {
			run.Transfers++
		}
	}

	if err := p.submit(ctx, dest, auth, txs); err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
		p.record(ctx, run, nil)

		return nil, err
	}

	run.Status = history.StatusSubmitted
	p.record(ctx, run, txs)

	return run, nil
}

func (p *Pipeline) submit(ctx context.Context, dest Ledger, auth ledger.Auth, txs []*transaction.Transaction) error {
	if len(txs) == 0 {
		p.log.Info("nothing to submit")
		return nil
	}

	p.log.Info("creating transactions in the service", "count", len(txs))

	if err := dest.Submit(ctx, auth, txs); err != nil {
		return fmt.Errorf("submit transactions: %w", err)
	}

	return nil
}

// fetch retrieves the reference lists concurrently, then the existing ledger
// resolved against them.
func (p *Pipeline) fetch(ctx context.Context, dest Ledger, auth ledger.Auth) (reference.Data, []*transaction.Transaction, error) {
	var data reference.Data

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.log.Info("getting accounts")

		var err error
		data.Accounts, err = dest.Accounts(gctx, auth)

		return err
	})

	g.Go(func() error {
		p.log.Info("getting currencies")

		var err error
		data.Currencies, err = dest.Currencies(gctx, auth)

		return err
	})

	g.Go(func() error {
		p.log.Info("getting categories")

		var err error
		data.Categories, err = dest.Categories(gctx, auth)

		return err
	})

	if err := g.Wait(); err != nil {
		return reference.Data{}, nil, err
	}

	p.log.Info("getting all transactions from service")

	existing, err := dest.Transactions(ctx, auth, data)
	if err != nil {
		return reference.Data{}, nil, err
	}

	return data, existing, nil
}

func (p *Pipeline) record(ctx context.Context, run *history.Run, submitted []*transaction.Transaction) {
	if p.history == nil {
		return
	}

	run.FinishedAt = p.now()

	if err := p.history.Record(context.WithoutCancel(ctx), run, submitted); err != nil {
		p.log.Error("failed to record run", "run", run.ID, "status", run.Status, "error", err)
	}
}

// cutoff drops records whose calendar day, read in the record's own zone,
// falls after maxDate. Credit card records are exempt.
func cutoff(raws []transaction.Raw, maxDate time.Time) []transaction.Raw {
	if maxDate.IsZero() {
		return raws
	}

	y, m, d := maxDate.Date()

	return slices.DeleteFunc(raws, func(r transaction.Raw) bool {
		end := time.Date(y, m, d+1, 0, 0, 0, 0, r.Date.Location())
		return !r.IsCreditCard() && !r.Date.Before(end)
	})
}
