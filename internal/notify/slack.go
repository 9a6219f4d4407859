package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hamed0406/certwatch/internal/domain"
)

type slackPayload struct {
	Text string `json:"text"`
}

// RenderSlack renders m for a Slack incoming webhook.
func RenderSlack(m Message) ([]byte, error) {
	var b strings.Builder
	switch m.Kind {
	case KindTest:
		fmt.Fprintf(&b, "*SSL Certificate Monitor — Test*\nWebhook is working! Test sent at %s\n", m.SentAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Alert threshold: %d days\nCheck interval: %ds\nSites monitored: %d",
			m.Threshold, int(m.Interval.Seconds()), m.SiteCount)
	case KindAlert:
		fmt.Fprintf(&b, "*SSL Certificate Alert* (%s)\n%s", m.Severity, alertSummary(m))
		for _, r := range m.Rows {
			rel := humanize.RelTime(m.SentAt.AddDate(0, 0, r.Days), m.SentAt, "ago", "from now")
			mark := ":large_yellow_circle:"
			if r.Tier == domain.TierExpired || r.Tier == domain.TierCritical {
				mark = ":red_circle:"
			}
			fmt.Fprintf(&b, "\n%s %s — %s (expires %s, %s)", mark, r.Host, statusWord(r), r.Expiry, rel)
		}
	default:
		return nil, fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return json.Marshal(slackPayload{Text: b.String()})
}

func statusWord(r Row) string {
	if r.Tier == domain.TierExpired {
		return "expired"
	}
	return fmt.Sprintf("%dd left", r.Days)
}
