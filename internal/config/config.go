package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joao-fontenele/storefront/internal/api"
	"github.com/joao-fontenele/storefront/internal/logging"
)

type StorageKind string

const (
	StorageFile     StorageKind = "file"
	StoragePostgres StorageKind = "postgres"
	StorageMemory   StorageKind = "memory"
)

const (
	DefaultAPIURL         = "http://localhost:8090/api/v1"
	DefaultProfile        = "default"
	DefaultPort           = "8090"
	DefaultMaxAttempts    = 5
	DefaultMigrationsPath = "file://migrations"
)

// Config is the environment driven configuration shared by every binary.
// Each main checks the values it requires.
type Config struct {
	APIURL      string
	HealthURL   string
	HTTPTimeout time.Duration

	Storage     StorageKind
	StorageDir  string
	Profile     string
	PostgresURL string

	KafkaBrokers          []string
	ReconcilerToken       string
	ReconcilerMaxAttempts int

	OTelEnabled  bool
	OTLPEndpoint string
	LogLevel     slog.Level

	Port           string
	MigrationsPath string
}

func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config from getenv, applying defaults for unset variables.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIURL:          strings.TrimRight(withDefault(getenv("STOREFRONT_API_URL"), DefaultAPIURL), "/"),
		HealthURL:       strings.TrimRight(getenv("STOREFRONT_HEALTH_URL"), "/"),
		HTTPTimeout:     api.DefaultTimeout,
		Storage:         StorageKind(strings.ToLower(withDefault(getenv("STOREFRONT_STORAGE"), string(StorageFile)))),
		StorageDir:      getenv("STOREFRONT_STORAGE_DIR"),
		Profile:         withDefault(getenv("STOREFRONT_PROFILE"), DefaultProfile),
		PostgresURL:     getenv("POSTGRES_URL"),
		KafkaBrokers:    splitList(getenv("KAFKA_BROKERS")),
		ReconcilerToken: getenv("RECONCILER_TOKEN"),
		OTLPEndpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Port:            withDefault(getenv("PORT"), DefaultPort),
		MigrationsPath:  withDefault(getenv("MIGRATIONS_PATH"), DefaultMigrationsPath),
	}

	if v := getenv("STOREFRONT_HTTP_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse STOREFRONT_HTTP_TIMEOUT_SECONDS: %w", err)
		}
		cfg.HTTPTimeout = clampTimeout(time.Duration(seconds) * time.Second)
	}

	switch cfg.Storage {
	case StorageFile, StoragePostgres, StorageMemory:
	default:
		return Config{}, fmt.Errorf("unknown STOREFRONT_STORAGE %q", cfg.Storage)
	}

	if cfg.StorageDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve storage dir: %w", err)
		}
		cfg.StorageDir = filepath.Join(home, ".storefront")
	}

	cfg.ReconcilerMaxAttempts = DefaultMaxAttempts
	if v := getenv("RECONCILER_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid RECONCILER_MAX_ATTEMPTS %q", v)
		}
		cfg.ReconcilerMaxAttempts = n
	}

	cfg.OTelEnabled = cfg.OTLPEndpoint != ""
	if v := getenv("OTEL_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse OTEL_ENABLED: %w", err)
		}
		cfg.OTelEnabled = enabled
	}
	if cfg.OTelEnabled && cfg.OTLPEndpoint == "" {
		cfg.OTLPEndpoint = "localhost:4317"
	}

	level, err := logging.ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

// TracingEndpoint is the OTLP endpoint spans are exported to, or empty when
// export is disabled.
func (c Config) TracingEndpoint() string {
	if !c.OTelEnabled {
		return ""
	}
	return c.OTLPEndpoint
}

func clampTimeout(d time.Duration) time.Duration {
	return min(max(d, api.MinTimeout), api.MaxTimeout)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
