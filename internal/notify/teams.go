package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hamed0406/certwatch/internal/domain"
)

// Teams Workflows webhooks accept a message wrapping one Adaptive Card.

type teamsMessage struct {
	Type        string            `json:"type"`
	Attachments []teamsAttachment `json:"attachments"`
}

type teamsAttachment struct {
	ContentType string    `json:"contentType"`
	Content     teamsCard `json:"content"`
}

type teamsCard struct {
	Schema  string `json:"$schema"`
	Type    string `json:"type"`
	Version string `json:"version"`
	Body    []any  `json:"body"`
}

type textBlock struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Weight  string `json:"weight,omitempty"`
	Size    string `json:"size,omitempty"`
	Color   string `json:"color,omitempty"`
	Spacing string `json:"spacing,omitempty"`
	Wrap    bool   `json:"wrap,omitempty"`
}

type fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type factSet struct {
	Type  string `json:"type"`
	Facts []fact `json:"facts"`
}

type tableCell struct {
	Type  string      `json:"type"`
	Items []textBlock `json:"items"`
}

type tableRow struct {
	Type  string      `json:"type"`
	Style string      `json:"style,omitempty"`
	Cells []tableCell `json:"cells"`
}

type tableColumn struct {
	Width int `json:"width"`
}

type table struct {
	Type             string        `json:"type"`
	GridStyle        string        `json:"gridStyle"`
	FirstRowAsHeader bool          `json:"firstRowAsHeader"`
	ShowGridLines    bool          `json:"showGridLines"`
	Columns          []tableColumn `json:"columns"`
	Rows             []tableRow    `json:"rows"`
}

// RenderTeams renders m as an Adaptive Card message.
func RenderTeams(m Message) ([]byte, error) {
	var body []any
	switch m.Kind {
	case KindTest:
		body = []any{
			textBlock{Type: "TextBlock", Text: "🔒 SSL Certificate Monitor — Test", Weight: "Bolder", Size: "Large", Wrap: true},
			textBlock{Type: "TextBlock", Text: "✅ Webhook is working! Test sent at " + m.SentAt.Format("2006-01-02 15:04:05"), Color: "Good", Wrap: true},
			factSet{Type: "FactSet", Facts: []fact{
				{Title: "Alert threshold", Value: fmt.Sprintf("%d days", m.Threshold)},
				{Title: "Check interval", Value: fmt.Sprintf("%ds", int(m.Interval.Seconds()))},
				{Title: "Sites monitored", Value: fmt.Sprintf("%d", m.SiteCount)},
			}},
		}
	case KindAlert:
		color := "warning"
		if m.Severity == SeverityHigh {
			color = "attention"
		}
		rows := []tableRow{{
			Type:  "TableRow",
			Style: "accent",
			Cells: []tableCell{
				cell(textBlock{Type: "TextBlock", Text: "Site", Weight: "Bolder", Size: "Small", Wrap: true}),
				cell(textBlock{Type: "TextBlock", Text: "Status", Weight: "Bolder", Size: "Small", Wrap: true}),
				cell(textBlock{Type: "TextBlock", Text: "Expires", Weight: "Bolder", Size: "Small"}),
			},
		}}
		for _, r := range m.Rows {
			rows = append(rows, tableRow{
				Type: "TableRow",
				Cells: []tableCell{
					cell(textBlock{Type: "TextBlock", Text: string(r.Host), Weight: "Bolder", Size: "Small", Wrap: true}),
					cell(textBlock{Type: "TextBlock", Text: statusText(r), Size: "Small", Wrap: true}),
					cell(textBlock{Type: "TextBlock", Text: r.Expiry, Size: "Small"}),
				},
			})
		}
		body = []any{
			textBlock{Type: "TextBlock", Text: "🔒 SSL Certificate Alert", Weight: "Bolder", Size: "Large", Wrap: true},
			textBlock{Type: "TextBlock", Text: alertSummary(m), Spacing: "None", Color: color, Wrap: true},
			table{
				Type:             "Table",
				GridStyle:        "accent",
				FirstRowAsHeader: true,
				ShowGridLines:    true,
				Columns:          []tableColumn{{Width: 3}, {Width: 2}, {Width: 2}},
				Rows:             rows,
			},
		}
	default:
		return nil, fmt.Errorf("unknown message kind %q", m.Kind)
	}

	return json.Marshal(teamsMessage{
		Type: "message",
		Attachments: []teamsAttachment{{
			ContentType: "application/vnd.microsoft.card.adaptive",
			Content: teamsCard{
				Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
				Type:    "AdaptiveCard",
				Version: "1.5",
				Body:    body,
			},
		}},
	})
}

func cell(b textBlock) tableCell {
	return tableCell{Type: "TableCell", Items: []textBlock{b}}
}

func statusText(r Row) string {
	switch r.Tier {
	case domain.TierExpired:
		days := r.Days
		if days < 0 {
			days = -days
		}
		return fmt.Sprintf("🔴 Expired %dd ago", days)
	case domain.TierCritical:
		return fmt.Sprintf("🔴 %dd left", r.Days)
	default:
		return fmt.Sprintf("🟡 %dd left", r.Days)
	}
}

func alertSummary(m Message) string {
	noun := "certificate"
	if len(m.Rows) != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s expiring within %d days", len(m.Rows), noun, m.Threshold)
}
