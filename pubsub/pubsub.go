package pubsub2

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/R3kki/scroogecoin/events"
	"github.com/R3kki/scroogecoin/logger"
)

type PubSubClient struct {
	Client *pubsub.Client
	logger logger.Logger
}

// NewPubSubClient connects to the emulator when PUBSUB_EMULATOR_HOST is set
// and to Google Cloud with application default credentials otherwise. Extra
// options are passed through (tests use them to dial pstest).
func NewPubSubClient(ctx context.Context, projectID string, l logger.Logger, opts ...option.ClientOption) (*PubSubClient, error) {
	if l == nil {
		l = logger.NewNop()
	}

	emulatorHost := os.Getenv("PUBSUB_EMULATOR_HOST")

	if emulatorHost != "" && len(opts) == 0 {
		l.Infof("[PubSub] Using emulator at %s", emulatorHost)

		c, err := pubsub.NewClient(ctx, projectID,
			option.WithoutAuthentication(),
			option.WithEndpoint(emulatorHost),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create emulator client: %w", err)
		}

		return &PubSubClient{Client: c, logger: l}, nil
	}

	c, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud pubsub client: %w", err)
	}

	return &PubSubClient{Client: c, logger: l}, nil
}

func (p *PubSubClient) Close() error {
	return p.Client.Close()
}

func (p *PubSubClient) PublishJSON(ctx context.Context, topicName string, data interface{}) error {
	topic := p.Client.Topic(topicName)
	defer topic.Stop()

	raw, err := events.Marshal(data)
	if err != nil {
		return err
	}

	res := topic.Publish(ctx, &pubsub.Message{
		Data: raw,
	})

	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topicName, err)
	}

	p.logger.Debugf("[PubSub] published message %s to topic %s", id, topicName)
	return nil
}
