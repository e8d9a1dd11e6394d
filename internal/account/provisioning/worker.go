package provisioning

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerline/payflow/internal/config"
	"github.com/ledgerline/payflow/pkg/lock"
)

const lockKey = "payflow:provisioning:identity"

type WorkerParams struct {
	fx.In

	Log      *zap.Logger
	Consumer *Consumer
	Holder   *config.PaymentsConfigHolder
	Locker   *lock.Locker `optional:"true"`
}

// Worker polls the account outbox on an interval. When a distributed lock
// is configured, only one instance drains the outbox per tick.
type Worker struct {
	log      *zap.Logger
	consumer *Consumer
	holder   *config.PaymentsConfigHolder
	locker   *lock.Locker
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		log:      p.Log.Named("account.provisioning.worker"),
		consumer: p.Consumer,
		holder:   p.Holder,
		locker:   p.Locker,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	interval := w.holder.Current().ProvisionPollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("provisioning run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Poll interval is hot-reloadable.
		if next := w.holder.Current().ProvisionPollInterval(); next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	cfg := w.holder.Current()

	ctx, cancel := context.WithTimeout(parentCtx, cfg.ProvisionPollInterval()+30*time.Second)
	defer cancel()

	if w.locker != nil {
		token, ok, err := w.locker.TryLock(ctx, lockKey, cfg.ProvisionPollInterval()*2)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		defer func() {
			if err := w.locker.Release(ctx, lockKey, token); err != nil {
				w.log.Warn("failed to release provisioning lock", zap.Error(err))
			}
		}()
	}

	return w.consumer.ProcessPending(ctx, cfg.ProvisionBatchSize)
}
