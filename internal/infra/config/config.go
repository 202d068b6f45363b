package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stayhub/internal/domain/shared/money"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	ListingsLocal  = "local"
	ListingsRemote = "remote"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the process configuration, read once at startup.
type Config struct {
	Env      string
	LogLevel string

	HTTPAddr    string
	CORSOrigins []string

	StorageMode    string
	MongoURI       string
	MongoDB        string
	IdempotencyTTL time.Duration

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaPaymentTopic  string
	KafkaConsumerGroup string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	ListingsSource   string
	ListingsURL      string
	ListingsTimeout  time.Duration
	ListingsFixtures string
	DefaultCurrency  string
}

// KafkaEnabled reports whether the outbox relay and payment consumer run.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load applies envFiles (missing files are skipped) and then reads the
// environment. A variable already set in the process wins over the files.
// Every malformed value is reported, not just the first.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}
	var env reader
	cfg := Config{
		Env:      env.str("APP_ENV", "dev"),
		LogLevel: env.str("LOG_LEVEL", "info"),

		HTTPAddr:    env.str("HTTP_ADDR", ":8080"),
		CORSOrigins: env.list("CORS_ALLOWED_ORIGINS", "*"),

		StorageMode:    strings.ToLower(env.str("STORAGE_MODE", StorageMemory)),
		MongoURI:       env.str("MONGO_URI", ""),
		MongoDB:        env.str("MONGO_DB", "stayhub"),
		IdempotencyTTL: env.duration("IDEMP_TTL", 7*24*time.Hour),

		KafkaBrokers:       env.list("KAFKA_BROKERS", ""),
		KafkaTopicPrefix:   env.str("KAFKA_TOPIC_PREFIX", ""),
		KafkaPaymentTopic:  env.str("KAFKA_PAYMENT_TOPIC", "payments.results.v1"),
		KafkaConsumerGroup: env.str("KAFKA_CONSUMER_GROUP", "stayhub-bookings"),
		OutboxPollInterval: env.duration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		RetryBackoff:       env.durations("RETRY_BACKOFF", "1s,5s,30s"),

		ListingsSource:   strings.ToLower(env.str("LISTINGS_SOURCE", ListingsLocal)),
		ListingsURL:      env.str("LISTINGS_URL", ""),
		ListingsTimeout:  env.duration("LISTINGS_TIMEOUT", 3*time.Second),
		ListingsFixtures: env.str("LISTINGS_FIXTURES", "data/listings.json"),
		DefaultCurrency:  env.currency("DEFAULT_CURRENCY", "COP"),
	}
	if err := errors.Join(append(env.errs, cfg.validate()...)...); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	switch c.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORAGE_MODE=mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_MODE %q", c.StorageMode))
	}
	switch c.ListingsSource {
	case ListingsLocal:
	case ListingsRemote:
		if c.ListingsURL == "" {
			errs = append(errs, errors.New("LISTINGS_URL is required when LISTINGS_SOURCE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LISTINGS_SOURCE %q", c.ListingsSource))
	}
	return errs
}

// reader looks up variables and collects parse failures.
type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// list splits a comma separated value, dropping blank entries.
func (r *reader) list(key, def string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) durations(key, def string) []time.Duration {
	var out []time.Duration
	for _, part := range r.list(key, def) {
		d, err := time.ParseDuration(part)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s component %q: %w", key, part, err))
			continue
		}
		out = append(out, d)
	}
	return out
}

func (r *reader) currency(key, def string) string {
	code, err := money.Code(r.str(key, def))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return ""
	}
	return code
}
