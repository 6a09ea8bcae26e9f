package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgersync/internal/history"
	"github.com/MrJamesThe3rd/ledgersync/internal/transaction"
)

func newTx(desc string, amount int64) *transaction.Transaction {
	return &transaction.Transaction{
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(amount),
		Type:        transaction.TypeWithdrawal,
		Description: desc,
	}
}

func TestService_Record(t *testing.T) {
	type args struct {
		run       *history.Run
		submitted []*transaction.Transaction
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(repo *history.MockRepository, rtx *history.MockRecordTx)
		wantErr   string
	}

	lidl := newTx("Lidl", 12)

	tests := []testCase{
		{
			name: "Success",
			args: args{
				run:       &history.Run{Destination: "firefly3", Status: history.StatusSubmitted},
				submitted: []*transaction.Transaction{lidl},
			},
			setupMock: func(repo *history.MockRepository, rtx *history.MockRecordTx) {
				repo.EXPECT().BeginRecord(gomock.Any(), "firefly3").Return(rtx, nil)
				rtx.EXPECT().CreateRun(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().
					CreateSubmissions(gomock.Any(), gomock.Not(uuid.Nil), []history.Submission{{
						Fingerprint: lidl.Fingerprint(),
						Date:        lidl.Date,
						Amount:      "12.00",
						Description: "Lidl",
					}}).
					Return(nil)
				rtx.EXPECT().Commit().Return(nil)
				rtx.EXPECT().Rollback().Return(nil)
			},
		},
		{
			name: "NothingSubmitted",
			args: args{run: &history.Run{Destination: "wallet", DryRun: true, Status: history.StatusPreviewed}},
			setupMock: func(repo *history.MockRepository, rtx *history.MockRecordTx) {
				repo.EXPECT().BeginRecord(gomock.Any(), "wallet").Return(rtx, nil)
				rtx.EXPECT().CreateRun(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().Commit().Return(nil)
				rtx.EXPECT().Rollback().Return(nil)
			},
		},
		{
			name: "BeginError",
			args: args{run: &history.Run{Destination: "wallet"}},
			setupMock: func(repo *history.MockRepository, _ *history.MockRecordTx) {
				repo.EXPECT().BeginRecord(gomock.Any(), "wallet").Return(nil, errors.New("locked"))
			},
			wantErr: "begin record: locked",
		},
		{
			name: "SubmissionsError",
			args: args{
				run:       &history.Run{Destination: "wallet"},
				submitted: []*transaction.Transaction{lidl},
			},
			setupMock: func(repo *history.MockRepository, rtx *history.MockRecordTx) {
				repo.EXPECT().BeginRecord(gomock.Any(), "wallet").Return(rtx, nil)
				rtx.EXPECT().CreateRun(gomock.Any(), gomock.Any()).Return(nil)
				rtx.EXPECT().CreateSubmissions(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
				rtx.EXPECT().Rollback().Return(nil)
			},
			wantErr: "create submissions: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			repo := history.NewMockRepository(ctrl)
			rtx := history.NewMockRecordTx(ctrl)
			tt.setupMock(repo, rtx)

			err := history.NewService(repo).Record(context.Background(), tt.args.run, tt.args.submitted)

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, tt.args.run.ID)
		})
	}
}

func TestService_Previously(t *testing.T) {
	a, b, c := newTx("a", 1), newTx("b", 2), newTx("c", 3)

	t.Run("Split", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := history.NewMockRepository(ctrl)
		repo.EXPECT().
			FindSubmitted(gomock.Any(), []string{a.Fingerprint(), b.Fingerprint(), c.Fingerprint()}).
			Return(map[string]int{b.Fingerprint(): 1}, nil)

		fresh, seen, err := history.NewService(repo).Previously(context.Background(), []*transaction.Transaction{a, b, c})
		require.NoError(t, err)
		assert.Equal(t, []*transaction.Transaction{a, c}, fresh)
		assert.Equal(t, []*transaction.Transaction{b}, seen)
	})

	t.Run("TwinsSkippedOnlyAsOftenAsSubmitted", func(t *testing.T) {
		twin1, twin2, twin3 := newTx("coffee", 2), newTx("coffee", 2), newTx("coffee", 2)

		ctrl := gomock.NewController(t)
		repo := history.NewMockRepository(ctrl)
		repo.EXPECT().
			FindSubmitted(gomock.Any(), gomock.Any()).
			Return(map[string]int{twin1.Fingerprint(): 2}, nil)

		fresh, seen, err := history.NewService(repo).Previously(context.Background(), []*transaction.Transaction{twin1, a, twin2, twin3})
		require.NoError(t, err)
		assert.Equal(t, []*transaction.Transaction{a, twin3}, fresh)
		assert.Equal(t, []*transaction.Transaction{twin1, twin2}, seen)
	})

	t.Run("Empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		fresh, seen, err := history.NewService(history.NewMockRepository(ctrl)).Previously(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, fresh)
		assert.Empty(t, seen)
	})

	t.Run("RepoError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := history.NewMockRepository(ctrl)
		repo.EXPECT().FindSubmitted(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

		_, _, err := history.NewService(repo).Previously(context.Background(), []*transaction.Transaction{a})
		assert.ErrorContains(t, err, "find submitted")
	})
}

func TestService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := history.NewMockRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().GetRun(gomock.Any(), id).Return(nil, history.ErrNotFound)

	_, err := history.NewService(repo).Get(context.Background(), id)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := history.NewMockRepository(ctrl)
	filter := history.ListFilter{Destination: "wallet", Limit: 5}

	repo.EXPECT().ListRuns(gomock.Any(), filter).Return([]*history.Run{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	runs, err := history.NewService(repo).List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
