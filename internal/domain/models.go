package domain

import (
	"math"
	"time"
)

// Host is a lowercase DNS name probed on port 443.
type Host string

const (
	// SentinelDays, SentinelExpiry and SentinelIssuer fill a failed result.
	SentinelDays   = -1
	SentinelExpiry = "-"
	SentinelIssuer = "-"

	// DateLayout is used for expiry dates and alert-history dates.
	DateLayout = "2006-01-02"
)

// CertificateResult is the outcome of one probe. Either Error is empty and the
// certificate fields are real, or Error is set and they hold the sentinels.
// A certificate that lapsed within the last day also reports -1 days, so use
// OK, not DaysRemaining, to tell the two apart.
type CertificateResult struct {
	Host          Host   `json:"site"`
	Expiry        string `json:"expiry"`
	DaysRemaining int    `json:"days"`
	Issuer        string `json:"issuer"`
	Error         string `json:"error,omitempty"`
}

// OK reports whether the probe succeeded.
func (r CertificateResult) OK() bool { return r.Error == "" }

// NewResult builds a successful result. Days are floored, so a certificate
// that expired an hour ago reports -1 and one expiring in 23h reports 0.
func NewResult(host Host, notAfter time.Time, issuer string, now time.Time) CertificateResult {
	if issuer == "" {
		issuer = "Unknown"
	}
	exp := notAfter.UTC()
	return CertificateResult{
		Host:          host,
		Expiry:        exp.Format(DateLayout),
		DaysRemaining: DaysUntil(exp, now),
		Issuer:        issuer,
	}
}

// NewFailure builds a failed result carrying only the error description.
func NewFailure(host Host, err error) CertificateResult {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return CertificateResult{
		Host:          host,
		Expiry:        SentinelExpiry,
		DaysRemaining: SentinelDays,
		Issuer:        SentinelIssuer,
		Error:         msg,
	}
}

// DaysUntil is floor((t - now) / 24h).
func DaysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}

// Snapshot is the full result set of one scan cycle, one entry per host.
// It is never modified after publication.
type Snapshot struct {
	Results    []CertificateResult `json:"results"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Len returns the number of results.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Results)
}
