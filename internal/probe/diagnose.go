package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/certwatch/internal/domain"
)

// DiagnosingProber appends a DNS classification to failed probes, e.g.
// "dial tcp: lookup x.example: no such host dns=NXDOMAIN".
//
// The lookups run after the inner probe has given up, so a failing host costs
// up to the probe timeout plus Timeout.
type DiagnosingProber struct {
	Inner    Prober
	Resolver Resolver
	// Timeout caps the DNS lookups; zero means 3s.
	Timeout time.Duration
}

func (d *DiagnosingProber) Probe(ctx context.Context, host domain.Host) domain.CertificateResult {
	r := d.Inner.Probe(ctx, host)
	if r.OK() || ctx.Err() != nil {
		return r
	}
	limit := d.Timeout
	if limit <= 0 {
		limit = defaultDNSLimit
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	st := CheckDNS(ctx, d.Resolver, string(host))
	if st.Class != DNSResolves {
		r.Error = fmt.Sprintf("%s dns=%s", r.Error, st.Class)
	}
	return r
}
