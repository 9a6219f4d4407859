package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NotConfigured is the message returned when no webhook URL is set.
const NotConfigured = "not configured"

// Notifier delivers a message and reports the outcome instead of failing.
type Notifier interface {
	Send(ctx context.Context, m Message) (ok bool, message string)
	Configured() bool
}

// Renderer turns a message into a webhook request body.
type Renderer func(m Message) ([]byte, error)

// Webhook POSTs rendered JSON to a single URL.
type Webhook struct {
	URL    string
	Client *http.Client
	Render Renderer
}

// NewWebhook picks the renderer by format ("slack", anything else is Teams).
// An empty url yields a webhook that reports "not configured".
func NewWebhook(url, format string) *Webhook {
	render := RenderTeams
	if strings.EqualFold(format, "slack") {
		render = RenderSlack
	}
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
		Render: render,
	}
}

func (w *Webhook) Configured() bool { return w != nil && w.URL != "" }

func (w *Webhook) Send(ctx context.Context, m Message) (bool, string) {
	if !w.Configured() {
		return false, NotConfigured
	}
	render := w.Render
	if render == nil {
		render = RenderTeams
	}
	body, err := render(m)
	if err != nil {
		return false, "render: " + err.Error()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	return resp.StatusCode/100 == 2, msg
}
