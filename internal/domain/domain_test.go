package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewResult_FloorsDaysAndDefaultsIssuer(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		notAfter time.Time
		want     int
	}{
		{now.Add(5*24*time.Hour + time.Hour), 5},
		{now.Add(23 * time.Hour), 0},
		{now.Add(-time.Hour), -1},
		{now.Add(-49 * time.Hour), -3},
	}
	for _, c := range cases {
		r := NewResult("a.example", c.notAfter, "", now)
		if r.DaysRemaining != c.want {
			t.Fatalf("notAfter=%s: want %d days, got %d", c.notAfter, c.want, r.DaysRemaining)
		}
		if r.Issuer != "Unknown" || !r.OK() {
			t.Fatalf("unexpected result %+v", r)
		}
	}
}

func TestNewResult_ExpiryIsUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	notAfter := time.Date(2025, 9, 1, 5, 0, 0, 0, loc) // 2025-08-31 19:00 UTC
	r := NewResult("a.example", notAfter, "Let's Encrypt", notAfter.Add(-time.Hour))
	if r.Expiry != "2025-08-31" {
		t.Fatalf("want UTC date, got %q", r.Expiry)
	}
}

func TestNewFailure_UsesSentinels(t *testing.T) {
	r := NewFailure("b.example", errors.New("lookup b.example: no such host"))
	if r.OK() {
		t.Fatal("failure must not be OK")
	}
	if r.DaysRemaining != SentinelDays || r.Expiry != SentinelExpiry || r.Issuer != SentinelIssuer {
		t.Fatalf("sentinels not set: %+v", r)
	}
	if NewFailure("c.example", nil).Error == "" {
		t.Fatal("nil error still needs a description")
	}
}

func TestCertificateResult_JSONShape(t *testing.T) {
	b, err := json.Marshal(CertificateResult{Host: "a.example", Expiry: "2025-01-01", DaysRemaining: 3, Issuer: "X"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"site", "expiry", "days", "issuer"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if _, ok := m["error"]; ok {
		t.Fatalf("error should be omitted on success: %s", b)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		days, threshold int
		want            Tier
	}{
		{-5, 15, TierExpired},
		{0, 15, TierCritical},
		{3, 15, TierCritical},
		{7, 15, TierCritical},
		{8, 15, TierWarning},
		{12, 15, TierWarning},
		{15, 15, TierWarning},
		{16, 15, TierOK},
	}
	for _, c := range cases {
		if got := Classify(c.days, c.threshold); got != c.want {
			t.Fatalf("Classify(%d,%d)=%s want %s", c.days, c.threshold, got, c.want)
		}
	}
}

func TestQualifies_ThresholdBoundary(t *testing.T) {
	now := time.Now()
	at := NewResult("a.example", now.Add(15*24*time.Hour+time.Minute), "X", now)
	over := NewResult("a.example", now.Add(16*24*time.Hour+time.Minute), "X", now)
	if !Qualifies(at, 15) {
		t.Fatalf("days == threshold must qualify: %+v", at)
	}
	if Qualifies(over, 15) {
		t.Fatalf("threshold+1 must not qualify: %+v", over)
	}
	if Qualifies(NewFailure("a.example", errors.New("x")), 15) {
		t.Fatal("failed probes never qualify")
	}
}

// A certificate that lapsed within the last day floors to -1 but is still a
// successful read; only Error distinguishes it from a failed probe.
func TestNewResult_JustExpiredIsNotAFailure(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	r := NewResult("a.example", now.Add(-time.Hour), "R3", now)

	if r.DaysRemaining != SentinelDays || !r.OK() {
		t.Fatalf("want ok result with -1 days, got %+v", r)
	}
	if r.Expiry != "2026-10-19" || r.Issuer != "R3" {
		t.Fatalf("certificate fields lost: %+v", r)
	}
	if got := Classify(r.DaysRemaining, 15); got != TierExpired {
		t.Fatalf("want expired tier, got %s", got)
	}
	if !Qualifies(r, 15) {
		t.Fatalf("just-expired certificate must qualify for an alert")
	}
}
