package pubsub2

import (
	"context"

	"github.com/R3kki/scroogecoin/events"
)

func (p *PubSubClient) PublishTxSubmit(
	ctx context.Context,
	msg events.TxSubmitRequest,
) error {
	return p.PublishJSON(ctx, events.TopicTxSubmit, msg)
}

func (p *PubSubClient) PublishEpochSettled(
	ctx context.Context,
	msg events.EpochSettled,
) error {
	return p.PublishJSON(ctx, events.TopicEpochSettled, msg)
}
