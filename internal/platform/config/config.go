package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	JWTTTL        time.Duration
	LogLevel      string

	Agent    Agent
	Uploads  Uploads
	Webhook  Webhook
	Kafka    Kafka
	Analysis Analysis
	Auth     Auth
}

// Agent configures the external analysis service.
type Agent struct {
	URL     string
	Timeout time.Duration
}

// Uploads configures local document storage.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// Webhook configures vendor callback verification.
type Webhook struct {
	Secret        string
	AllowUnsigned bool
}

// Kafka configures the completion event publisher. No brokers means events
// are logged instead.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Analysis configures the background analysis worker pool.
type Analysis struct {
	Workers   int
	QueueSize int
}

// Auth configures login throttling.
type Auth struct {
	LoginRatePerMinute int
}

// DefaultJWTSigningKey is only suitable for local development.
const DefaultJWTSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, v))
			return def
		}
		return d
	}
	num := func(key string, def int64) int64 {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid positive integer %q", key, v))
			return def
		}
		return n
	}

	cfg := Server{
		Addr:          envOr("KYC_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", DefaultJWTSigningKey),
		JWTTTL:        dur("JWT_TTL", 24*time.Hour),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		Agent: Agent{
			URL:     strings.TrimRight(envOr("AGENT_URL", "http://localhost:8000"), "/"),
			Timeout: dur("AGENT_TIMEOUT", 120*time.Second),
		},
		Uploads: Uploads{
			Dir:      envOr("KYC_UPLOAD_DIR", "uploads"),
			MaxBytes: num("KYC_MAX_UPLOAD_BYTES", 10<<20),
		},
		Webhook: Webhook{
			Secret:        os.Getenv("KYC_WEBHOOK_SECRET"),
			AllowUnsigned: os.Getenv("KYC_WEBHOOK_ALLOW_UNSIGNED") == "true",
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_TOPIC", "kyc.completed"),
		},
		Analysis: Analysis{
			Workers:   int(num("ANALYSIS_WORKERS", 2)),
			QueueSize: int(num("ANALYSIS_QUEUE_SIZE", 64)),
		},
		Auth: Auth{
			LoginRatePerMinute: int(num("LOGIN_RATE_PER_MIN", 10)),
		},
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
