package notify

import (
	"sort"
	"time"

	"github.com/hamed0406/certwatch/internal/domain"
)

type Kind string

const (
	KindTest  Kind = "test"
	KindAlert Kind = "alert"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Row is one host line of an alert.
type Row struct {
	Host   domain.Host
	Expiry string
	Days   int
	Tier   domain.Tier
}

// Message is rendered by the webhook into its wire format.
type Message struct {
	Kind      Kind
	Severity  string
	Threshold int
	Interval  time.Duration
	SiteCount int
	SentAt    time.Time
	Rows      []Row
}

// NewAlert builds an alert for the given results, most urgent first. The
// severity is high when any row is critical or already expired.
func NewAlert(results []domain.CertificateResult, threshold int, now time.Time) Message {
	rows := make([]Row, 0, len(results))
	severity := SeverityMedium
	for _, r := range results {
		tier := domain.Classify(r.DaysRemaining, threshold)
		if tier == domain.TierExpired || tier == domain.TierCritical {
			severity = SeverityHigh
		}
		rows = append(rows, Row{Host: r.Host, Expiry: r.Expiry, Days: r.DaysRemaining, Tier: tier})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Days < rows[j].Days })
	return Message{
		Kind:      KindAlert,
		Severity:  severity,
		Threshold: threshold,
		SentAt:    now,
		Rows:      rows,
	}
}

// NewTest builds the connectivity check message.
func NewTest(threshold int, interval time.Duration, siteCount int, now time.Time) Message {
	return Message{
		Kind:      KindTest,
		Threshold: threshold,
		Interval:  interval,
		SiteCount: siteCount,
		SentAt:    now,
	}
}
