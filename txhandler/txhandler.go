// Package txhandler settles epochs: it validates an unordered batch of
// candidate transactions against a working UTXO pool and applies the
// accepted ones.
//
// Conflicts are resolved first-seen-wins. Candidates are processed in the
// order given and each accepted transaction is applied to the pool before the
// next candidate is validated, so a later candidate spending an output that
// an earlier one already spent fails with model.ErrMissingInput, while a
// later candidate spending an output an earlier one created succeeds.
package txhandler

import (
	"fmt"
	"time"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/logger"
	"github.com/R3kki/scroogecoin/metrics"
)

type Option func(*TxHandler)

func WithLogger(l logger.Logger) Option {
	return func(h *TxHandler) {
		h.logger = l
	}
}

// WithWorkingPool settles into pool instead of a fresh in-memory UTXOSet.
// The pool is expected to be empty; the initial pool is copied into it.
func WithWorkingPool(pool model.UTXOProvider) Option {
	return func(h *TxHandler) {
		h.pool = pool
	}
}

// TxHandler owns its working pool exclusively and is not safe for
// concurrent use.
type TxHandler struct {
	pool   model.UTXOProvider
	logger logger.Logger
}

// NewTxHandler copies initial into the working pool; later changes to
// initial do not affect the handler and vice versa.
func NewTxHandler(initial model.UTXOProvider, opts ...Option) (*TxHandler, error) {
	h := &TxHandler{
		logger: logger.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	if h.pool == nil {
		h.pool = model.NewUTXOSet()
	}

	if initial != nil {
		if err := model.CopyUTXOs(h.pool, initial); err != nil {
			return nil, fmt.Errorf("copy initial pool: %w", err)
		}
	}
	metrics.UTXOPoolSize.Set(float64(h.pool.Len()))

	return h, nil
}

// UTXOPool returns the working pool. It reflects every accepted transaction.
func (h *TxHandler) UTXOPool() model.UTXOProvider {
	return h.pool
}

func (h *TxHandler) IsValidTx(tx *model.Transaction) bool {
	return model.IsValidTx(h.pool, tx)
}

func (h *TxHandler) ValidateTx(tx *model.Transaction) error {
	return model.ValidateTx(h.pool, tx)
}

type Rejection struct {
	Tx  *model.Transaction
	Err error
}

func (r Rejection) Reason() model.Reason {
	return model.ReasonOf(r.Err)
}

type EpochResult struct {
	// Accepted in acceptance order, which is also settlement order.
	Accepted []*model.Transaction
	Rejected []Rejection
}

// HandleTxs settles one epoch and returns the accepted transactions.
func (h *TxHandler) HandleTxs(txs []*model.Transaction) []*model.Transaction {
	return h.SettleEpoch(txs).Accepted
}

// SettleEpoch is HandleTxs that also reports every rejection. Rejection is a
// normal outcome and never an error.
func (h *TxHandler) SettleEpoch(txs []*model.Transaction) *EpochResult {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.EpochSettleDuration, start)

	res := &EpochResult{
		Accepted: make([]*model.Transaction, 0, len(txs)),
	}

	for _, tx := range txs {
		if err := h.ValidateTx(tx); err != nil {
			res.reject(tx, err)
			h.logger.Debugf("[txhandler] rejected %s: %v", txidOf(tx), err)
			continue
		}

		if err := h.pool.ApplyTransaction(tx); err != nil {
			err = model.NewValidationError(model.ReasonStorage, -1, "%v", err)
			res.reject(tx, err)
			h.logger.Errorf("[txhandler] apply %s: %v", tx.Txid, err)
			continue
		}

		res.Accepted = append(res.Accepted, tx)
		metrics.TxAccepted.Inc()
	}

	metrics.UTXOPoolSize.Set(float64(h.pool.Len()))
	h.logger.Infof(
		"[txhandler] epoch settled | candidates=%d | accepted=%d | rejected=%d | took=%v",
		len(txs),
		len(res.Accepted),
		len(res.Rejected),
		time.Since(start),
	)

	return res
}

func (r *EpochResult) reject(tx *model.Transaction, err error) {
	r.Rejected = append(r.Rejected, Rejection{Tx: tx, Err: err})
	metrics.TxRejected.WithLabelValues(model.ReasonOf(err).String()).Inc()
}

func txidOf(tx *model.Transaction) string {
	if tx == nil {
		return "<nil>"
	}
	return tx.Txid.String()
}
