package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/demand-sim/demand-sim/sim/store"
)

// Config is the process environment. Command-line flags win over it.
type Config struct {
	DatabaseURL       string
	NATSURL           string
	NATSSubjectPrefix string
	// MetricsAddr (e.g. ":9102"); empty disables the metrics server.
	MetricsAddr string
	// ScenarioDir roots the file store.
	ScenarioDir string
}

// LoadConfig reads the environment, after loading .env if there is one.
func LoadConfig() *Config {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	// Prefer DATABASE_URL / PG_DSN, else build from PG* vars when PGDATABASE is set
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN"))
	if cfg.DatabaseURL == "" && os.Getenv("PGDATABASE") != "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		sslmode := getenvDefault("PGSSLMODE", "disable")
		auth := urlEscape(user)
		if pass := os.Getenv("PGPASSWORD"); pass != "" {
			auth += ":" + urlEscape(pass)
		}
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", auth, host, port, os.Getenv("PGDATABASE"), sslmode)
	}

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectPrefix = getenvDefault("NATS_SUBJECT_PREFIX", "demand.trips")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.ScenarioDir = getenvDefault("SCENARIO_DIR", "data/scenarios")
	return cfg
}

// openStore picks a scenario store backend by name: "file" or "postgres".
// The returned func releases it.
func openStore(ctx context.Context, kind string, cfg *Config) (store.Store, func(), error) {
	switch kind {
	case "file":
		return store.NewFiles(cfg.ScenarioDir), func() {}, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("--store postgres needs DATABASE_URL, PG_DSN or PGDATABASE")
		}
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewPostgres(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logrus.Debugf("using postgres scenario store")
		return st, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q; valid: file, postgres", kind)
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
