package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/config"
	"github.com/R3kki/scroogecoin/epoch"
	"github.com/R3kki/scroogecoin/events"
	"github.com/R3kki/scroogecoin/metrics"
	pubsub2 "github.com/R3kki/scroogecoin/pubsub"
	subscriber "github.com/R3kki/scroogecoin/subcriber"
	"github.com/R3kki/scroogecoin/txhandler"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Collect submissions from Pub/Sub and settle them in epochs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveRun(ctx, cfg)
		},
	}
}

type settledPublisher struct {
	client *pubsub2.PubSubClient
	topic  string
}

func (p settledPublisher) PublishEpochSettled(ctx context.Context, msg events.EpochSettled) error {
	return p.client.PublishJSON(ctx, p.topic, msg)
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	l := commonLogger(cfg)

	metrics.Register(prometheus.DefaultRegisterer)

	genesis, err := loadSnapshot(cfg.Pool.Genesis)
	if err != nil {
		return fmt.Errorf("load genesis: %w", err)
	}

	working, err := openWorkingPool(cfg.Pool)
	if err != nil {
		return err
	}
	defer working.Close()

	handler, err := txhandler.NewTxHandler(
		genesis.ToUTXOSet(),
		txhandler.WithWorkingPool(working),
		txhandler.WithLogger(l.New("txhandler")),
	)
	if err != nil {
		return err
	}
	l.Infof("working pool ready | backend=%s | utxos=%d", cfg.Pool.Backend, working.Len())

	ps, err := pubsub2.NewPubSubClient(ctx, cfg.PubSub.ProjectID, l.New("pubsub"))
	if err != nil {
		return err
	}
	defer ps.Close()

	var publisher epoch.Publisher
	if cfg.PubSub.SettledTopic != "" {
		publisher = settledPublisher{client: ps, topic: cfg.PubSub.SettledTopic}
	}

	mempool := model.NewMempool()
	runner := epoch.NewRunner(handler, mempool, model.NewLedger(), epoch.Options{
		Interval:      cfg.Epoch.Interval,
		MaxBatchBytes: cfg.Epoch.MaxBatchBytes,
		Publisher:     publisher,
		Logger:        l.New("epoch"),
	})

	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("metrics server: %v", err)
		}
	}()

	runner.Start(ctx)

	sub := ps.Client.Subscription(cfg.PubSub.SubmitSubscription)
	subErr := subscriber.SubscribeTxSubmit(ctx, sub, mempool, l.New("subscriber"))

	runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if subErr != nil && !errors.Is(subErr, context.Canceled) {
		return fmt.Errorf("subscription %s: %w", cfg.PubSub.SubmitSubscription, subErr)
	}
	return nil
}
