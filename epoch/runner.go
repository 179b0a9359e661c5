package epoch

import (
	"context"
	"time"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/events"
	"github.com/R3kki/scroogecoin/logger"
	"github.com/R3kki/scroogecoin/metrics"
	"github.com/R3kki/scroogecoin/txhandler"
)

const (
	DefaultMaxBatchBytes = 1 * 1024 * 1024 // 1MB
	DefaultInterval      = 5 * time.Second
	IdlePoll             = 100 * time.Millisecond
)

// Publisher receives the outcome of every settled epoch.
type Publisher interface {
	PublishEpochSettled(ctx context.Context, msg events.EpochSettled) error
}

type Options struct {
	Interval      time.Duration
	MaxBatchBytes int
	Publisher     Publisher
	Logger        logger.Logger
}

// Runner is the only writer of the handler's pool: one goroutine drains the
// mempool and settles an epoch once the batch is full or the interval has
// passed.
type Runner struct {
	Handler *txhandler.TxHandler
	Mempool *model.Mempool
	Ledger  *model.Ledger

	interval      time.Duration
	maxBatchBytes int
	publisher     Publisher
	logger        logger.Logger

	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRunner(
	handler *txhandler.TxHandler,
	mempool *model.Mempool,
	ledger *model.Ledger,
	opts Options,
) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxBatchBytes <= 0 {
		opts.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Runner{
		Handler:       handler,
		Mempool:       mempool,
		Ledger:        ledger,
		interval:      opts.Interval,
		maxBatchBytes: opts.MaxBatchBytes,
		publisher:     opts.Publisher,
		logger:        opts.Logger,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start runs the settle loop in a goroutine until Stop. Calling it again is a
// no-op.
func (r *Runner) Start(ctx context.Context) {
	if r.started {
		return
	}
	r.started = true
	r.logger.Infof("[epoch] runner started | interval=%v | maxBatchBytes=%d", r.interval, r.maxBatchBytes)

	go func() {
		defer close(r.doneCh)

		poll := IdlePoll
		if r.interval < poll {
			poll = r.interval
		}
		ticker := time.NewTicker(poll)
		defer ticker.Stop()

		epochStart := time.Now()

		for {
			select {
			case <-r.stopCh:
				r.logger.Infof("[epoch] runner stopped")
				return

			case <-ctx.Done():
				r.logger.Infof("[epoch] runner stopped: %v", ctx.Err())
				return

			case <-ticker.C:
				snap := r.Mempool.SnapshotUntilSize(r.maxBatchBytes)
				if len(snap.Transactions) == 0 {
					epochStart = time.Now()
					continue
				}

				if snap.Size < r.maxBatchBytes && time.Since(epochStart) < r.interval {
					continue
				}

				r.settle(ctx, snap.Transactions)
				epochStart = time.Now()
			}
		}
	}()
}

// Stop ends the loop and waits for the in-flight epoch to finish.
func (r *Runner) Stop() {
	if !r.started {
		return
	}
	close(r.stopCh)
	<-r.doneCh
}

// SettleOnce settles whatever fits in one batch right now. It must not be
// called while the loop is running.
func (r *Runner) SettleOnce(ctx context.Context) (*model.Epoch, *txhandler.EpochResult) {
	snap := r.Mempool.SnapshotUntilSize(r.maxBatchBytes)
	return r.settle(ctx, snap.Transactions)
}

func (r *Runner) settle(ctx context.Context, candidates []*model.Transaction) (*model.Epoch, *txhandler.EpochResult) {
	res := r.Handler.SettleEpoch(candidates)

	// rejected candidates are dropped too; submitters may resend them
	r.Mempool.RemoveTransactions(candidates)
	metrics.MempoolSize.Set(float64(r.Mempool.Size()))

	e := r.Ledger.Append(res.Accepted, len(res.Rejected))
	metrics.EpochHeight.Set(float64(e.Height))

	r.logger.Infof(
		"[epoch] settled | height=%d | hash=%s | accepted=%d | rejected=%d",
		e.Height,
		e.Hash,
		len(res.Accepted),
		len(res.Rejected),
	)

	if r.publisher != nil {
		if err := r.publisher.PublishEpochSettled(ctx, events.NewEpochSettled(e, res)); err != nil {
			r.logger.Errorf("[epoch] publish epoch %d: %v", e.Height, err)
		}
	}

	return e, res
}
