package subscriber

import (
	"context"

	"cloud.google.com/go/pubsub"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/events"
	"github.com/R3kki/scroogecoin/logger"
	"github.com/R3kki/scroogecoin/metrics"
)

// SubscribeTxSubmit feeds submitted transactions into the mempool until ctx
// is cancelled. Validation happens at settlement, not here; undecodable
// messages are acked and dropped so they are not redelivered forever.
func SubscribeTxSubmit(
	ctx context.Context,
	sub *pubsub.Subscription,
	mempool *model.Mempool,
	l logger.Logger,
) error {
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		defer msg.Ack()

		var req events.TxSubmitRequest
		if err := events.Unmarshal(msg.Data, &req); err != nil {
			l.Warnf("[subscriber] parsing %s: %v", events.TopicTxSubmit, err)
			return
		}
		if req.Transaction == nil {
			l.Warnf("[subscriber] message %s has no transaction", msg.ID)
			return
		}

		if err := mempool.AddTransaction(req.Transaction); err != nil {
			l.Debugf("[subscriber] mempool add: %v", err)
			return
		}

		metrics.MempoolSize.Set(float64(mempool.Size()))
	})
}
