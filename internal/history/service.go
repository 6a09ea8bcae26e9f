package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=history
type Repository interface {
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filter ListFilter) ([]*Run, error)
	FindSubmitted(ctx context.Context, fingerprints []string) (map[string]int, error)

	BeginRecord(ctx context.Context, destination string) (RecordTx, error)
}

type RecordTx interface {
	CreateRun(ctx context.Context, run *Run) error
	CreateSubmissions(ctx context.Context, runID uuid.UUID, subs []Submission) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores run together with the transactions it submitted.
func (s *Service) Record(ctx context.Context, run *Run, submitted []*transaction.Transaction) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	rtx, err := s.repo.BeginRecord(ctx, run.Destination)
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer rtx.Rollback()

	if err := rtx.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	if len(submitted) > 0 {
		if err := rtx.CreateSubmissions(ctx, run.ID, submissions(submitted)); err != nil {
			return fmt.Errorf("create submissions: %w", err)
		}
	}

	if err := rtx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}

	return nil
}

// Previously splits txs into those never submitted and those a previous
// run already submitted. A fingerprint submitted k times marks at most its
// first k occurrences in txs as seen. Both lists keep input order.
func (s *Service) Previously(ctx context.Context, txs []*transaction.Transaction) (fresh, seen []*transaction.Transaction, err error) {
	if len(txs) == 0 {
		return nil, nil, nil
	}

	prints := make([]string, len(txs))
	for i, tx := range txs {
		prints[i] = tx.Fingerprint()
	}

	remaining, err := s.repo.FindSubmitted(ctx, prints)
	if err != nil {
		return nil, nil, fmt.Errorf("find submitted: %w", err)
	}

	for i, tx := range txs {
		if remaining[prints[i]] > 0 {
			remaining[prints[i]]--
			seen = append(seen, tx)

			continue
		}

		fresh = append(fresh, tx)
	}

	return fresh, seen, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Run, error) {
	return s.repo.ListRuns(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	return s.repo.GetRun(ctx, id)
}

func submissions(txs []*transaction.Transaction) []Submission {
	subs := make([]Submission, len(txs))
	for i, tx := range txs {
		subs[i] = Submission{
			Fingerprint: tx.Fingerprint(),
			Date:        tx.Date,
			Amount:      tx.Amount.StringFixed(2),
			Description: tx.Description,
		}
	}

	return subs
}
