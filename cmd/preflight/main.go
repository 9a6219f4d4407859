// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/certwatch/internal/config"
	"github.com/hamed0406/certwatch/internal/sites"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	if err := config.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		fail("environment has invalid values")
	}
	ok("numeric settings parse")

	if cfg.Webhook == "" {
		warn("TEAMS_WEBHOOK empty; alerts will be logged but not delivered.")
	} else {
		ok("TEAMS_WEBHOOK present (" + cfg.WebhookFormat + " format)")
	}

	hosts, err := sites.File{Path: cfg.SitesFile}.Load()
	switch {
	case err != nil:
		fail("SITES_FILE " + cfg.SitesFile + ": " + err.Error())
	case len(hosts) == 0:
		warn("SITES_FILE " + cfg.SitesFile + " lists no valid hosts; the service will idle.")
	default:
		ok(fmt.Sprintf("SITES_FILE %s: %d host(s)", cfg.SitesFile, len(hosts)))
	}

	if cfg.DatabaseURL != "" {
		ok("DATABASE_URL present; alert history kept in Postgres")
	} else {
		if err := checkWritable(cfg.DataDir); err != nil {
			fail("DATA_DIR " + cfg.DataDir + " not writable: " + err.Error())
		}
		ok("DATA_DIR " + cfg.DataDir + " writable")
	}

	if strings.TrimSpace(cfg.TestKey) == "" {
		warn("TEST_KEY empty; /test-webhook and /test-alert are open to anyone.")
	} else {
		ok("TEST_KEY set")
	}

	ok("preflight passed")
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	return multierr.Combine(f.Close(), os.Remove(filepath.Clean(name)))
}
