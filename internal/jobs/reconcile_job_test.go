package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freight-backend/internal/domain/entity"
	"github.com/ignatzorin/freight-backend/internal/jobs"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Execute(ctx context.Context) (*ledger.ReconcileReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*ledger.ReconcileReport)
	return report, args.Error(1)
}

func init() {
	logger.Discard()
}

func TestReconcileJob_RunOnce(t *testing.T) {
	drift := ledger.WalletDrift{
		WalletID: uuid.New(),
		OwnerID:  uuid.New(),
		Stored:   entity.Balances{Available: 100},
		Replayed: entity.Balances{Available: 90},
	}

	t.Run("отчёт с расхождением возвращается как есть", func(t *testing.T) {
		rec := new(mockReconciler)
		want := &ledger.ReconcileReport{CheckedAt: time.Now(), Wallets: 3, Drifts: []ledger.WalletDrift{drift}}
		rec.On("Execute", mock.Anything).Return(want, nil).Once()

		got := jobs.NewReconcileJob(rec, "@every 1h").RunOnce(context.Background())
		require.NotNil(t, got)
		assert.False(t, got.Consistent())
		assert.Equal(t, want, got)
		rec.AssertExpectations(t)
	})

	t.Run("ошибка сверки не роняет задачу", func(t *testing.T) {
		rec := new(mockReconciler)
		rec.On("Execute", mock.Anything).Return(nil, errors.New("db down")).Once()

		assert.Nil(t, jobs.NewReconcileJob(rec, "@every 1h").RunOnce(context.Background()))
		rec.AssertExpectations(t)
	})
}

func TestReconcileJob_Schedule(t *testing.T) {
	t.Run("некорректное расписание", func(t *testing.T) {
		job := jobs.NewReconcileJob(new(mockReconciler), "not a cron")
		assert.Error(t, job.Start())
	})

	t.Run("запуск по расписанию", func(t *testing.T) {
		rec := new(mockReconciler)
		called := make(chan struct{}, 8)
		rec.On("Execute", mock.Anything).
			Run(func(mock.Arguments) { called <- struct{}{} }).
			Return(&ledger.ReconcileReport{CheckedAt: time.Now()}, nil)

		job := jobs.NewReconcileJob(rec, "* * * * * *")
		require.NoError(t, job.Start())
		defer job.Stop(context.Background())

		select {
		case <-called:
		case <-time.After(3 * time.Second):
			t.Fatal("сверка не запустилась по расписанию")
		}
	})
}
