package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Addr          string        // HTTP bind address, e.g. ":7921"
	LogDir        string        // logs directory
	LogLevel      string        // zap level name
	SitesFile     string        // flat site list, one hostname per line
	DataDir       string        // holds alerts_sent.json
	DatabaseURL   string        // when set, alert history is kept in Postgres
	Webhook       string        // TEAMS_WEBHOOK; empty disables notifications
	WebhookFormat string        // "teams" | "slack"
	AlertDays     int           // alert when days remaining <= AlertDays
	CheckInterval time.Duration // pause between the end of one cycle and the next
	MaxWorkers    int           // probe pool ceiling
	ProbeTimeout  time.Duration // connect + handshake bound per probe
	ProbeAttempts int           // 1 = no retry
	ProbeBackoff  time.Duration // pause between attempts
	TestKey       string        // protects /test-* endpoints when set
	TestCooldown  time.Duration // min gap between test-endpoint invocations
	ReadyTimeout  time.Duration // how long startup waits for the first snapshot
}

// AlertHistoryFile is where the file store keeps the host -> last-alert-date map.
func (c Config) AlertHistoryFile() string {
	return filepath.Join(c.DataDir, "alerts_sent.json")
}

// FromEnv loads .env (if present) and reads the environment, falling back to
// defaults for anything missing or unparsable.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getenv("ADDR", ":7921"),
		LogDir:        getenv("LOG_DIR", "logs"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		SitesFile:     getenv("SITES_FILE", "sites.csv"),
		DataDir:       getenv("DATA_DIR", "data"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Webhook:       strings.TrimSpace(os.Getenv("TEAMS_WEBHOOK")),
		WebhookFormat: strings.ToLower(getenv("WEBHOOK_FORMAT", "teams")),
		AlertDays:     getenvInt("ALERT_DAYS", 15, 0),
		CheckInterval: time.Duration(getenvInt("CHECK_INTERVAL_S", 3600, 1)) * time.Second,
		MaxWorkers:    getenvInt("MAX_WORKERS", 10, 1),
		ProbeTimeout:  time.Duration(getenvInt("PROBE_TIMEOUT_MS", 10000, 1)) * time.Millisecond,
		ProbeAttempts: getenvInt("PROBE_ATTEMPTS", 1, 1),
		ProbeBackoff:  time.Duration(getenvInt("PROBE_BACKOFF_MS", 500, 0)) * time.Millisecond,
		TestKey:       os.Getenv("TEST_KEY"),
		TestCooldown:  time.Duration(getenvInt("TEST_COOLDOWN_S", 30, 0)) * time.Second,
		ReadyTimeout:  time.Duration(getenvInt("READY_TIMEOUT_S", 120, 0)) * time.Second,
	}
}

// Validate reports every environment value that FromEnv had to replace with a
// default, plus settings that are inconsistent with each other.
func Validate() error {
	var err error
	for _, k := range []struct {
		name string
		lo   int
	}{
		{"ALERT_DAYS", 0},
		{"CHECK_INTERVAL_S", 1},
		{"MAX_WORKERS", 1},
		{"PROBE_TIMEOUT_MS", 1},
		{"PROBE_ATTEMPTS", 1},
		{"PROBE_BACKOFF_MS", 0},
		{"TEST_COOLDOWN_S", 0},
		{"READY_TIMEOUT_S", 0},
	} {
		v := os.Getenv(k.name)
		if v == "" {
			continue
		}
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s=%q is not an integer", k.name, v))
			continue
		}
		if n < k.lo {
			err = multierr.Append(err, fmt.Errorf("%s=%d must be >= %d", k.name, n, k.lo))
		}
	}
	switch f := strings.ToLower(os.Getenv("WEBHOOK_FORMAT")); f {
	case "", "teams", "slack":
	default:
		err = multierr.Append(err, fmt.Errorf("WEBHOOK_FORMAT=%q must be teams or slack", f))
	}
	if w := strings.TrimSpace(os.Getenv("TEAMS_WEBHOOK")); w != "" &&
		!strings.HasPrefix(w, "https://") && !strings.HasPrefix(w, "http://") {
		err = multierr.Append(err, fmt.Errorf("TEAMS_WEBHOOK must be an http(s) URL"))
	}
	return err
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def, lo int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= lo {
			return n
		}
	}
	return def
}
