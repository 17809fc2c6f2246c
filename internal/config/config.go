package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"

	BusBackendNATS   = "nats"
	BusBackendKafka  = "kafka"
	BusBackendPubSub = "pubsub"
)

// Config contains runtime configuration required by the service.
// It is read once at startup and never mutated afterwards.
type Config struct {
	HTTPAddr string

	TableName    string
	EventBusName string

	StoreBackend  string
	DBURL         string
	RedisAddr     string
	RedisPassword string

	BusBackend      string
	NATSURL         string
	KafkaBrokers    []string
	PubSubProjectID string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults.
// KAFKA_BROKERS format: "host1:9092,host2:9092"
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		TableName:       env("DOORBELL_TABLE_NAME", "DoorbellEvents"),
		EventBusName:    env("EVENT_BUS_NAME", "DoorbellEventBus"),
		StoreBackend:    strings.ToLower(env("STORE_BACKEND", StoreBackendPostgres)),
		DBURL:           env("DB_URL", ""),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   env("REDIS_PASSWORD", ""),
		BusBackend:      strings.ToLower(env("BUS_BACKEND", BusBackendNATS)),
		NATSURL:         env("NATS_URL", "nats://127.0.0.1:4222"),
		PubSubProjectID: env("PUBSUB_PROJECT_ID", ""),
		LogLevel:        strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(env("LOG_FORMAT", "json")),
	}

	for _, b := range strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DBURL == "" {
			return Config{}, errors.New("DB_URL required for postgres store")
		}
	case StoreBackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.BusBackend {
	case BusBackendNATS, BusBackendPubSub:
	case BusBackendKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, errors.New("KAFKA_BROKERS required for kafka bus")
		}
	default:
		return Config{}, fmt.Errorf("unknown BUS_BACKEND %q", cfg.BusBackend)
	}

	return cfg, nil
}

// env returns the trimmed value of key, or def when unset or blank.
func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
