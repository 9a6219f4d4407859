package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/httpapi/middleware"
	"github.com/hamed0406/certwatch/internal/notify"
	"github.com/hamed0406/certwatch/internal/repo"
)

// AlertFilter applies the alert threshold to a result set.
type AlertFilter interface {
	Qualifying(results []domain.CertificateResult) []domain.CertificateResult
	Threshold() int
}

// Settings are the parts of the service configuration the HTTP layer reports
// or enforces.
type Settings struct {
	Interval     time.Duration
	TestKey      string
	TestCooldown time.Duration
	TemplatePath string
	SiteCount    func() int
}

type Server struct {
	Logger    *zap.Logger
	Results   repo.SnapshotReader
	Notifier  notify.Notifier
	Filter    AlertFilter
	Settings  Settings
	Dashboard *Dashboard
	Clock     clockwork.Clock

	cooldown *middleware.Cooldown
	started  time.Time
}

func NewServer(l *zap.Logger, rs repo.SnapshotReader, n notify.Notifier, f AlertFilter, st Settings, clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if st.TemplatePath == "" {
		st.TemplatePath = "template.html"
	}
	return &Server{
		Logger:    l,
		Results:   rs,
		Notifier:  n,
		Filter:    f,
		Settings:  st,
		Dashboard: NewDashboard(st.TemplatePath),
		Clock:     clock,
		cooldown:  middleware.NewCooldown(st.TestCooldown, clock),
		started:   clock.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)

	r.With(cors.AllowAll().Handler).Get("/api", s.handleAPI)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTestKey(s.Settings.TestKey))
		r.Use(s.cooldown.Middleware)
		r.Get("/test-webhook", s.handleTestWebhook)
		r.Get("/test-alert", s.handleTestAlert)
	})

	r.Get("/", s.handleDashboard)
	r.Get("/index.html", s.handleDashboard)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) latest() []domain.CertificateResult {
	if snap := s.Results.Latest(); snap != nil {
		return snap.Results
	}
	return []domain.CertificateResult{}
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store")
	rows := s.latest()
	if rows == nil {
		rows = []domain.CertificateResult{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

type health struct {
	Status          string `json:"status"`
	SitesTotal      int    `json:"sites_total"`
	SitesOK         int    `json:"sites_ok"`
	SitesWarning    int    `json:"sites_warning"`
	SitesError      int    `json:"sites_error"`
	TeamsConfigured bool   `json:"teams_configured"`
	AlertThreshold  int    `json:"alert_threshold"`
	CheckInterval   int    `json:"check_interval"`
	UptimeSeconds   int    `json:"uptime_seconds"`
	Uptime          string `json:"uptime"`
	Timestamp       string `json:"timestamp"`
}

// Expired certificates count as neither ok nor warning.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.Clock.Now()
	threshold := s.Filter.Threshold()
	h := health{
		Status:          "starting",
		TeamsConfigured: s.Notifier.Configured(),
		AlertThreshold:  threshold,
		CheckInterval:   int(s.Settings.Interval / time.Second),
		UptimeSeconds:   int(now.Sub(s.started) / time.Second),
		Uptime:          strings.TrimSpace(humanize.RelTime(s.started, now, "", "")),
		Timestamp:       now.UTC().Format(time.RFC3339),
	}
	if s.Results.Ready() {
		h.Status = "ok"
	}
	for _, res := range s.latest() {
		h.SitesTotal++
		switch {
		case !res.OK():
			h.SitesError++
		case res.DaysRemaining > threshold:
			h.SitesOK++
		case res.DaysRemaining >= 0:
			h.SitesWarning++
		}
	}
	writeJSON(w, http.StatusOK, h)
}

type testResult struct {
	WebhookConfigured bool   `json:"webhook_configured"`
	TestSites         int    `json:"test_sites,omitempty"`
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	Timestamp         string `json:"timestamp"`
}

// sendStatus maps a delivery outcome onto 200 sent, 502 rejected or
// unreachable, 400 nothing configured.
func (s *Server) sendStatus(ok bool) int {
	switch {
	case ok:
		return http.StatusOK
	case s.Notifier.Configured():
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) handleTestWebhook(w http.ResponseWriter, r *http.Request) {
	now := s.Clock.Now()
	sites := 0
	if s.Settings.SiteCount != nil {
		sites = s.Settings.SiteCount()
	}
	msg := notify.NewTest(s.Filter.Threshold(), s.Settings.Interval, sites, now)
	ok, text := s.Notifier.Send(r.Context(), msg)
	if !s.Notifier.Configured() {
		text = "TEAMS_WEBHOOK environment variable not set"
	}
	s.Logger.Info("test_webhook", zap.Bool("success", ok), zap.String("message", text))

	writeJSON(w, s.sendStatus(ok), testResult{
		WebhookConfigured: s.Notifier.Configured(),
		Success:           ok,
		Message:           text,
		Timestamp:         now.UTC().Format(time.RFC3339),
	})
}

// syntheticResults are the fake certificates behind /test-alert.
func syntheticResults(now time.Time) []domain.CertificateResult {
	mk := func(host string, days int) domain.CertificateResult {
		return domain.CertificateResult{
			Host:          domain.Host(host),
			Expiry:        now.UTC().AddDate(0, 0, days).Format(domain.DateLayout),
			DaysRemaining: days,
			Issuer:        "Test CA",
		}
	}
	return []domain.CertificateResult{
		mk("test-expired.example.com", -30),
		mk("test-critical.example.com", 5),
		mk("test-warning.example.com", 13),
	}
}

func (s *Server) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	now := s.Clock.Now()
	rows := s.Filter.Qualifying(syntheticResults(now))

	res := testResult{
		WebhookConfigured: s.Notifier.Configured(),
		TestSites:         len(rows),
		Timestamp:         now.UTC().Format(time.RFC3339),
	}
	if len(rows) > 0 {
		res.Success, res.Message = s.Notifier.Send(r.Context(), notify.NewAlert(rows, s.Filter.Threshold(), now))
	} else {
		res.Message = "no synthetic site is within the alert threshold"
	}
	if !res.WebhookConfigured {
		res.Message = "TEAMS_WEBHOOK not set"
	}
	s.Logger.Info("test_alert", zap.Int("sites", len(rows)), zap.Bool("success", res.Success), zap.String("message", res.Message))

	writeJSON(w, s.sendStatus(res.Success), res)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(s.Dashboard.Page())
}
