// Package jobs: фоновые задачи по расписанию (robfig/cron, секундная точность).
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/usecase/ledger"
)

const reconcileTimeout = time.Minute

// Reconciler сверяет балансы кошельков с журналом транзакций.
type Reconciler interface {
	Execute(ctx context.Context) (*ledger.ReconcileReport, error)
}

// ReconcileJob периодически запускает сверку журнала. Только чтение:
// расхождения попадают в лог и в метрику freight_ledger_reconcile_drift_wallets.
type ReconcileJob struct {
	reconciler Reconciler
	schedule   string
	cron       *cron.Cron
	log        *logrus.Entry
}

func NewReconcileJob(reconciler Reconciler, schedule string) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		schedule:   schedule,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.PrintfLogger(logger.Log)), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: logger.Log.WithField("component", "reconcile_job"),
	}
}

// Start регистрирует задачу и запускает планировщик. Некорректное расписание: ошибка.
func (j *ReconcileJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.log.WithField("schedule", j.schedule).Info("jobs: сверка журнала запущена")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущего запуска.
func (j *ReconcileJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
	j.log.Info("jobs: сверка журнала остановлена")
}

// RunOnce выполняет одну сверку и возвращает отчёт (nil при ошибке).
func (j *ReconcileJob) RunOnce(ctx context.Context) *ledger.ReconcileReport {
	report, err := j.reconciler.Execute(ctx)
	if err != nil {
		j.log.WithField("error", err.Error()).Error("jobs: сверка журнала не выполнена")
		return nil
	}

	if report.Consistent() {
		j.log.WithField("wallets", report.Wallets).Debug("jobs: журнал сходится")
		return report
	}
	for _, d := range report.Drifts {
		j.log.WithFields(logrus.Fields{
			"wallet_id":          d.WalletID,
			"owner_id":           d.OwnerID,
			"stored_available":   d.Stored.Available,
			"replayed_available": d.Replayed.Available,
			"stored_pending":     d.Stored.Pending,
			"replayed_pending":   d.Replayed.Pending,
			"stored_locked":      d.Stored.Locked,
			"replayed_locked":    d.Replayed.Locked,
			"replay_error":       d.ReplayError,
		}).Error("jobs: баланс кошелька расходится с журналом")
	}
	return report
}
