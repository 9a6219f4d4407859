package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/config"
	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/probe"
	"github.com/hamed0406/certwatch/internal/scheduler"
	"github.com/hamed0406/certwatch/internal/sites"
)

// certwatch-cli probes the hosts named on the command line, or one per line on
// stdin, and prints what the service would record for them.
func main() {
	cfg := config.FromEnv()
	timeout := flag.Duration("timeout", cfg.ProbeTimeout, "connect and handshake timeout per host")
	workers := flag.Int("workers", cfg.MaxWorkers, "hosts probed in parallel")
	flag.Parse()

	var raw string
	if flag.NArg() > 0 {
		raw = strings.Join(flag.Args(), "\n")
	} else {
		var b strings.Builder
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			b.WriteString(sc.Text())
			b.WriteByte('\n')
		}
		raw = b.String()
	}
	hosts, err := sites.Parse(strings.NewReader(raw))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid host list:", err)
		os.Exit(2)
	}
	if len(hosts) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cli [-timeout 10s] host [host...]")
		os.Exit(2)
	}

	prober := &probe.DiagnosingProber{Inner: probe.NewTLSProber(*timeout)}
	o := scheduler.NewOrchestrator(zap.NewNop(), prober, *workers, nil)
	snap := o.Scan(context.Background(), hosts)

	now := time.Now()
	failed := false
	for _, r := range snap.Results {
		if !r.OK() {
			failed = true
			fmt.Printf("%-30s ERROR  %s\n", r.Host, r.Error)
			continue
		}
		exp, _ := time.Parse(domain.DateLayout, r.Expiry)
		fmt.Printf("%-30s %4dd  %s (%s)  %s  [%s]\n",
			r.Host, r.DaysRemaining, r.Expiry,
			humanize.RelTime(exp, now, "ago", "from now"),
			r.Issuer, domain.Classify(r.DaysRemaining, cfg.AlertDays))
	}
	fmt.Printf("%d host(s) in %s\n", snap.Len(), snap.FinishedAt.Sub(snap.StartedAt).Round(time.Millisecond))
	if failed {
		os.Exit(1)
	}
}
