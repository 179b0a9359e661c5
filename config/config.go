package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "scrooge.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type LogConfig struct {
	Level  string `yaml:"level"  envconfig:"LEVEL"`
	Pretty bool   `yaml:"pretty" envconfig:"PRETTY"`
}

type PoolConfig struct {
	// memory, badger or redis
	Backend    string `yaml:"backend"    envconfig:"BACKEND"`
	BadgerPath string `yaml:"badgerPath" envconfig:"BADGER_PATH"`
	RedisAddr  string `yaml:"redisAddr"  envconfig:"REDIS_ADDR"`
	// JSON snapshot loaded as the initial pool
	Genesis string `yaml:"genesis" envconfig:"GENESIS"`
}

type EpochConfig struct {
	Interval      time.Duration `yaml:"interval"      envconfig:"INTERVAL"`
	MaxBatchBytes int           `yaml:"maxBatchBytes" envconfig:"MAX_BATCH_BYTES"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"projectId"          envconfig:"PROJECT_ID"`
	SubmitSubscription string `yaml:"submitSubscription" envconfig:"SUBMIT_SUBSCRIPTION"`
	// publishing is disabled when empty
	SettledTopic string `yaml:"settledTopic" envconfig:"SETTLED_TOPIC"`
}

type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr" envconfig:"LISTEN_ADDR"`
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Pool    PoolConfig    `yaml:"pool"`
	Epoch   EpochConfig   `yaml:"epoch"`
	PubSub  PubSubConfig  `yaml:"pubsub"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Pool: PoolConfig{
			Backend:   BackendMemory,
			RedisAddr: "localhost:6379",
		},
		Epoch: EpochConfig{
			Interval:      5 * time.Second,
			MaxBatchBytes: 1 * 1024 * 1024,
		},
		PubSub: PubSubConfig{
			ProjectID:          "scroogecoin",
			SubmitSubscription: "tx-submit-sub",
			SettledTopic:       "epoch.settled",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":2112",
		},
	}
}

// LoadConfig layers defaults, then the YAML file (if any), then environment
// variables named SCROOGE_<SECTION>_<KEY>, e.g. SCROOGE_POOL_BACKEND.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("scrooge", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Pool.Backend {
	case BackendMemory, BackendBadger:
	case BackendRedis:
		if c.Pool.RedisAddr == "" {
			return errors.New("pool.redisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown pool backend %q", c.Pool.Backend)
	}

	if c.Epoch.Interval <= 0 {
		return fmt.Errorf("epoch.interval must be positive, got %v", c.Epoch.Interval)
	}
	if c.Epoch.MaxBatchBytes <= 0 {
		return fmt.Errorf("epoch.maxBatchBytes must be positive, got %d", c.Epoch.MaxBatchBytes)
	}
	return nil
}
