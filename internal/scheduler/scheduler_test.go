package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hamed0406/certwatch/internal/domain"
	"github.com/hamed0406/certwatch/internal/notify"
	"github.com/hamed0406/certwatch/internal/probe"
	"github.com/hamed0406/certwatch/internal/repo"
	"github.com/hamed0406/certwatch/internal/repo/file"
	"github.com/hamed0406/certwatch/internal/repo/memory"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func ok(host string, days int) domain.CertificateResult {
	return domain.NewResult(domain.Host(host), t0.Add(time.Duration(days)*24*time.Hour+time.Hour), "Let's Encrypt", t0)
}

func snapshotOf(rs ...domain.CertificateResult) *domain.Snapshot {
	return &domain.Snapshot{Results: rs}
}

// ---- Orchestrator ----

func TestScan_OneResultPerHostInOrder(t *testing.T) {
	var inflight, peak atomic.Int32
	p := probe.Func(func(ctx context.Context, h domain.Host) domain.CertificateResult {
		n := inflight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		if h == "h3.example" {
			return domain.NewFailure(h, errors.New("connection refused"))
		}
		return ok(string(h), 30)
	})

	var hosts []domain.Host
	for i := 0; i < 20; i++ {
		hosts = append(hosts, domain.Host(fmt.Sprintf("h%d.example", i)))
	}
	o := NewOrchestrator(zap.NewNop(), p, 3, nil)
	snap := o.Scan(context.Background(), hosts)

	if snap.Len() != len(hosts) {
		t.Fatalf("want %d results, got %d", len(hosts), snap.Len())
	}
	for i, r := range snap.Results {
		if r.Host != hosts[i] {
			t.Fatalf("result %d is %s, want %s", i, r.Host, hosts[i])
		}
	}
	if snap.Results[3].OK() || !snap.Results[4].OK() {
		t.Fatalf("failure isolation broken: %+v %+v", snap.Results[3], snap.Results[4])
	}
	if got := peak.Load(); got > 3 {
		t.Fatalf("pool ceiling exceeded: %d concurrent probes", got)
	}
	if snap.FinishedAt.Before(snap.StartedAt) {
		t.Fatalf("bad timing: %v -> %v", snap.StartedAt, snap.FinishedAt)
	}
}

func TestScan_PanicBecomesFailure(t *testing.T) {
	p := probe.Func(func(ctx context.Context, h domain.Host) domain.CertificateResult {
		if h == "bad.example" {
			panic("boom")
		}
		return ok(string(h), 40)
	})
	o := NewOrchestrator(zap.NewNop(), p, 2, nil)
	snap := o.Scan(context.Background(), []domain.Host{"bad.example", "good.example"})

	if snap.Results[0].OK() || snap.Results[0].DaysRemaining != domain.SentinelDays {
		t.Fatalf("want sentinel failure, got %+v", snap.Results[0])
	}
	if !snap.Results[1].OK() {
		t.Fatalf("good host affected: %+v", snap.Results[1])
	}
}

func TestScan_EmptyHostList(t *testing.T) {
	o := NewOrchestrator(zap.NewNop(), probe.Func(nil), 0, nil)
	snap := o.Scan(context.Background(), nil)
	if snap == nil || snap.Len() != 0 {
		t.Fatalf("want empty snapshot, got %+v", snap)
	}
}

// ---- Deduplicator ----

type failingStore struct{ saves int }

func (f *failingStore) Load(ctx context.Context) (repo.AlertHistory, error) {
	return nil, errors.New("corrupt")
}
func (f *failingStore) Save(ctx context.Context, h repo.AlertHistory) error {
	f.saves++
	return errors.New("disk full")
}

func TestDeduplicator_ThresholdBoundary(t *testing.T) {
	d := NewDeduplicator(context.Background(), zap.NewNop(), nil, 15, clockwork.NewFakeClockAt(t0))
	due := d.Evaluate(context.Background(), snapshotOf(
		ok("edge.example", 15),
		ok("later.example", 16),
		ok("gone.example", -3),
		domain.NewFailure("down.example", errors.New("timeout")),
	))
	if len(due) != 2 || due[0].Host != "edge.example" || due[1].Host != "gone.example" {
		t.Fatalf("unexpected candidates: %+v", due)
	}
	if h := d.History(); h["edge.example"] != "2026-10-19" || len(h) != 2 {
		t.Fatalf("history: %v", h)
	}
}

func TestDeduplicator_OncePerDay(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	d := NewDeduplicator(context.Background(), zap.NewNop(), nil, 15, clock)
	snap := snapshotOf(ok("a.example", 5))

	if n := len(d.Evaluate(context.Background(), snap)); n != 1 {
		t.Fatalf("first scan: want 1 candidate, got %d", n)
	}
	clock.Advance(time.Hour)
	if n := len(d.Evaluate(context.Background(), snap)); n != 0 {
		t.Fatalf("second scan: want 0, got %d", n)
	}
	clock.Advance(time.Hour)
	if n := len(d.Evaluate(context.Background(), snap)); n != 0 {
		t.Fatalf("third scan: want 0, got %d", n)
	}

	clock.Advance(24 * time.Hour)
	if n := len(d.Evaluate(context.Background(), snap)); n != 1 {
		t.Fatalf("next day: want 1, got %d", n)
	}
}

func TestDeduplicator_SurvivesRestart(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "alerts_sent.json"))
	clock := clockwork.NewFakeClockAt(t0)
	snap := snapshotOf(ok("a.example", 5))

	first := NewDeduplicator(context.Background(), zap.NewNop(), store, 15, clock)
	if n := len(first.Evaluate(context.Background(), snap)); n != 1 {
		t.Fatalf("want 1, got %d", n)
	}

	restarted := NewDeduplicator(context.Background(), zap.NewNop(), store, 15, clock)
	if n := len(restarted.Evaluate(context.Background(), snap)); n != 0 {
		t.Fatalf("restart re-alerted: %d", n)
	}
}

func TestDeduplicator_StoreErrorsAreNotFatal(t *testing.T) {
	store := &failingStore{}
	d := NewDeduplicator(context.Background(), zap.NewNop(), store, 15, clockwork.NewFakeClockAt(t0))
	if len(d.History()) != 0 {
		t.Fatalf("corrupt history should start empty")
	}
	if n := len(d.Evaluate(context.Background(), snapshotOf(ok("a.example", 1)))); n != 1 {
		t.Fatalf("want 1, got %d", n)
	}
	if store.saves != 1 {
		t.Fatalf("want one save attempt, got %d", store.saves)
	}
	if n := len(d.Evaluate(context.Background(), snapshotOf(ok("a.example", 1)))); n != 0 {
		t.Fatalf("in-memory history lost after failed save")
	}
}

func TestDeduplicator_QualifyingLeavesHistoryAlone(t *testing.T) {
	d := NewDeduplicator(context.Background(), zap.NewNop(), nil, 15, clockwork.NewFakeClockAt(t0))
	q := d.Qualifying([]domain.CertificateResult{ok("a.example", 5), ok("b.example", 90)})
	if len(q) != 1 || len(d.History()) != 0 {
		t.Fatalf("qualifying=%v history=%v", q, d.History())
	}
}

// ---- Loop ----

type staticSites struct {
	mu    sync.Mutex
	lists [][]domain.Host
	err   error
	calls atomic.Int32
}

func (s *staticSites) Load() ([]domain.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int(s.calls.Add(1)) - 1
	if s.err != nil {
		return nil, s.err
	}
	if n >= len(s.lists) {
		n = len(s.lists) - 1
	}
	return s.lists[n], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Configured() bool { return true }
func (r *recordingNotifier) Send(ctx context.Context, m notify.Message) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return true, "HTTP 200: 1"
}
func (r *recordingNotifier) sent() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

type recordingScanner struct {
	mu   sync.Mutex
	seen [][]domain.Host
	next Scanner
}

func (r *recordingScanner) Scan(ctx context.Context, hosts []domain.Host) *domain.Snapshot {
	r.mu.Lock()
	r.seen = append(r.seen, hosts)
	r.mu.Unlock()
	return r.next.Scan(ctx, hosts)
}

func scenarioProber() probe.Prober {
	return probe.Func(func(ctx context.Context, h domain.Host) domain.CertificateResult {
		if h == "b.example" {
			return domain.NewFailure(h, errors.New("dial tcp: lookup b.example: no such host"))
		}
		return ok(string(h), 5)
	})
}

func newLoop(clock clockwork.Clock, sites HostSource, n notify.Notifier, results *memory.Store) *Loop {
	log := zap.NewNop()
	return &Loop{
		Logger:   log,
		Sites:    sites,
		Scanner:  NewOrchestrator(log, scenarioProber(), 4, clock),
		Results:  results,
		Dedup:    NewDeduplicator(context.Background(), log, nil, 15, clock),
		Notifier: n,
		Interval: time.Hour,
		Clock:    clock,
	}
}

func TestLoop_RunOnceScenario(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	results := memory.New()
	n := &recordingNotifier{}
	l := newLoop(clock, &staticSites{lists: [][]domain.Host{{"a.example", "b.example"}}}, n, results)

	rep := l.RunOnce(context.Background())

	if !results.Ready() || len(results.Results()) != 2 {
		t.Fatalf("published %d results, ready=%v", len(results.Results()), results.Ready())
	}
	if rep.Hosts != 2 || rep.Errors != 1 || rep.Alerted != 1 || !rep.Notified {
		t.Fatalf("report: %+v", rep)
	}
	msgs := n.sent()
	if len(msgs) != 1 {
		t.Fatalf("want 1 notification, got %d", len(msgs))
	}
	if msgs[0].Severity != notify.SeverityHigh || len(msgs[0].Rows) != 1 || msgs[0].Rows[0].Host != "a.example" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}

	// same day: nothing new to send
	l.RunOnce(context.Background())
	if len(n.sent()) != 1 {
		t.Fatalf("duplicate notification on same day")
	}
}

func TestLoop_EmptyReloadKeepsPreviousList(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	sites := &staticSites{lists: [][]domain.Host{{"a.example"}, {}}}
	l := newLoop(clock, sites, &recordingNotifier{}, memory.New())
	rec := &recordingScanner{next: l.Scanner}
	l.Scanner = rec

	l.RunOnce(context.Background())
	l.RunOnce(context.Background())

	if len(rec.seen) != 2 || len(rec.seen[1]) != 1 || rec.seen[1][0] != "a.example" {
		t.Fatalf("second cycle scanned %v", rec.seen)
	}
}

func TestLoop_ReloadErrorUsesSeededList(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	l := newLoop(clock, &staticSites{err: errors.New("no such file")}, &recordingNotifier{}, memory.New())
	l.SetHosts([]domain.Host{"a.example", "b.example"})

	rep := l.RunOnce(context.Background())
	if rep.Hosts != 2 {
		t.Fatalf("want seeded hosts, got %+v", rep)
	}
}

func TestLoop_RunWaitsIntervalAndStops(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	sites := &staticSites{lists: [][]domain.Host{{"a.example"}}}
	l := newLoop(clock, sites, &recordingNotifier{}, memory.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("loop never slept: %v", err)
	}
	if got := sites.calls.Load(); got != 1 {
		t.Fatalf("want 1 cycle before the interval elapses, got %d", got)
	}

	clock.Advance(time.Hour)
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("second sleep: %v", err)
	}
	if got := sites.calls.Load(); got != 2 {
		t.Fatalf("want 2 cycles, got %d", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}

func TestLoop_CancelledCycleKeepsPreviousSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	results := memory.New()
	n := &recordingNotifier{}
	l := newLoop(clock, &staticSites{lists: [][]domain.Host{{"a.example", "b.example"}}}, n, results)

	good := &domain.Snapshot{Results: []domain.CertificateResult{ok("a.example", 90), ok("b.example", 90)}}
	results.Publish(good)

	ctx, cancel := context.WithCancel(context.Background())
	l.Scanner = NewOrchestrator(zap.NewNop(), probe.Func(func(c context.Context, h domain.Host) domain.CertificateResult {
		cancel()
		return domain.NewFailure(h, c.Err())
	}), 1, clock)

	rep := l.RunOnce(ctx)

	if !rep.Aborted || rep.Notified || rep.Alerted != 0 {
		t.Fatalf("report: %+v", rep)
	}
	got := results.Results()
	if len(got) != 2 || !got[0].OK() || !got[1].OK() {
		t.Fatalf("shutdown replaced the published snapshot: %+v", got)
	}
	if len(n.sent()) != 0 || len(l.Dedup.History()) != 0 {
		t.Fatalf("aborted cycle reached dedup/notify")
	}
}
