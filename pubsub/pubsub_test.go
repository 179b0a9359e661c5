package pubsub2

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/events"
)

func newTestClient(t *testing.T) *PubSubClient {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	c, err := NewPubSubClient(context.Background(), "test-project", nil,
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func receiveOne(t *testing.T, sub *pubsub.Subscription) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var data []byte
	err := sub.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
		msg.Ack()
		if data == nil {
			data = msg.Data
			cancel()
		}
	})
	require.NoError(t, err)
	require.NotNil(t, data, "no message received")
	return data
}

func TestPublishEpochSettled(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	topic, err := c.Client.CreateTopic(ctx, events.TopicEpochSettled)
	require.NoError(t, err)
	defer topic.Stop()
	sub, err := c.Client.CreateSubscription(ctx, "settled-sub", pubsub.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	tx := model.NewTransaction()
	tx.AddOutput(0, []byte("k"))
	tx.Finalize()
	ledger := model.NewLedger()
	e := ledger.Append([]*model.Transaction{tx}, 0)

	msg := events.EpochSettled{
		Height:     e.Height,
		Hash:       e.Hash,
		PrevHash:   e.PrevHash,
		MerkleRoot: e.MerkleRoot,
		Accepted:   []model.Hash{tx.Txid},
		Rejected:   []events.RejectedTx{},
	}
	require.NoError(t, c.PublishEpochSettled(ctx, msg))

	var got events.EpochSettled
	require.NoError(t, events.Unmarshal(receiveOne(t, sub), &got))
	assert.Equal(t, msg, got)
}

func TestPublishJSON_UnknownTopic(t *testing.T) {
	c := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Error(t, c.PublishJSON(ctx, "does-not-exist", map[string]int{"a": 1}))
}
