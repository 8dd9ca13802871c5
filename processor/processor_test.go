// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/humaidq/labwise/analyzer"
	"github.com/humaidq/labwise/cache"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/notify"
	"github.com/humaidq/labwise/storage"
	"github.com/humaidq/labwise/textextract"
)

const sugarReport = `BLOOD SUGAR REPORT
FASTING BLOOD SUGAR
Result: 130 mg/dL

HbA1c
Result: 6.8%
`

type fakeReports struct {
	mu        sync.Mutex
	reports   map[uuid.UUID]*db.Report
	users     map[string]*db.User
	completed map[uuid.UUID]db.CompleteReportInput
	failed    map[uuid.UUID]string

	completeErr error
}

func newFakeReports() *fakeReports {
	return &fakeReports{
		reports:   map[uuid.UUID]*db.Report{},
		users:     map[string]*db.User{},
		completed: map[uuid.UUID]db.CompleteReportInput{},
		failed:    map[uuid.UUID]string{},
	}
}

func (f *fakeReports) add(r db.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reports[r.ID] = &r
}

func (f *fakeReports) GetReportByID(_ context.Context, id uuid.UUID) (*db.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reports[id]
	if !ok {
		return nil, db.ErrReportNotFound
	}

	cp := *r

	return &cp, nil
}

func (f *fakeReports) CompleteReport(_ context.Context, id uuid.UUID, input db.CompleteReportInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.completeErr != nil {
		return f.completeErr
	}

	r, ok := f.reports[id]
	if !ok {
		return db.ErrReportNotFound
	}

	r.Status = db.ReportCompleted
	f.completed[id] = input

	return nil
}

func (f *fakeReports) FailReport(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reports[id]
	if !ok {
		return db.ErrReportNotFound
	}

	r.Status = db.ReportFailed
	f.failed[id] = reason

	return nil
}

func (f *fakeReports) GetUserByID(_ context.Context, id string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeReports) ListProcessingReports(_ context.Context) ([]db.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []db.Report

	for _, r := range f.reports {
		if r.Status == db.ReportProcessing {
			out = append(out, *r)
		}
	}

	return out, nil
}

type recordingNotifier struct {
	events chan notify.Event
}

func (n *recordingNotifier) ReportProcessed(_ context.Context, event notify.Event) error {
	n.events <- event
	return nil
}

type fixture struct {
	reports  *fakeReports
	store    *storage.Local
	notifier *recordingNotifier
	user     *db.User
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	extractor, err := textextract.New(textextract.Config{})
	if err != nil {
		t.Fatalf("textextract.New failed: %v", err)
	}

	f := &fixture{
		reports:  newFakeReports(),
		store:    store,
		notifier: &recordingNotifier{events: make(chan notify.Event, 8)},
		user:     &db.User{ID: uuid.New(), Email: "amina@example.com", DisplayName: "Amina"},
	}
	f.reports.users[f.user.ID.String()] = f.user

	f.deps = Deps{
		Reports:   f.reports,
		Store:     store,
		Extractor: extractor,
		Analyzer:  analyzer.Heuristic{},
		Notifier:  f.notifier,
	}

	return f
}

// upload stores content and registers a processing report for it. An empty
// content registers a report whose file was never stored.
func (f *fixture) upload(t *testing.T, rt labs.ReportType, content string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	key := storage.Key(f.user.ID, id, "txt")

	if content != "" {
		if _, err := f.store.Save(context.Background(), key, strings.NewReader(content), int64(len(content))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	f.reports.add(db.Report{
		ID:         id,
		UserID:     f.user.ID,
		ReportType: rt,
		ReportDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		FileKey:    key,
		FileName:   "report.txt",
		FileType:   "txt",
		Status:     db.ReportProcessing,
	})

	return id
}

func waitEvent(t *testing.T, events <-chan notify.Event) notify.Event {
	t.Helper()

	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for notification")
	}

	return notify.Event{}
}

func TestProcessCompletesReport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.upload(t, labs.ReportSugar, sugarReport)

	p := New(Config{}, f.deps)
	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	input, ok := f.reports.completed[id]
	if !ok {
		t.Fatalf("report was not completed")
	}

	if len(input.Readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(input.Readings))
	}

	if input.AnalyzerEngine != analyzer.EngineHeuristic {
		t.Fatalf("engine = %q, want %q", input.AnalyzerEngine, analyzer.EngineHeuristic)
	}

	if input.RiskLevel != string(labs.RiskCritical) {
		t.Fatalf("risk = %q, want critical", input.RiskLevel)
	}

	if !strings.Contains(input.ExtractedText, "HbA1c") {
		t.Fatalf("extracted text not stored: %q", input.ExtractedText)
	}

	event := waitEvent(t, f.notifier.events)
	if event.Failed {
		t.Fatalf("event marked failed")
	}

	if event.User == nil || event.User.ID != f.user.ID {
		t.Fatalf("event user = %+v, want %s", event.User, f.user.ID)
	}

	if event.FollowUp.Urgency != "immediate" {
		t.Fatalf("follow-up urgency = %q, want immediate", event.FollowUp.Urgency)
	}
}

func TestProcessFailureReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "missing file", content: "", want: "uploaded file is missing"},
		{name: "blank file", content: " \n\t\n", want: "no text could be extracted from the file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			id := f.upload(t, labs.ReportCBC, tt.content)

			p := New(Config{}, f.deps)
			if err := p.Process(context.Background(), id); err == nil {
				t.Fatalf("Process succeeded, want error")
			}

			if got := f.reports.failed[id]; got != tt.want {
				t.Fatalf("failure reason = %q, want %q", got, tt.want)
			}

			event := waitEvent(t, f.notifier.events)
			if !event.Failed || event.Reason != tt.want {
				t.Fatalf("event = %+v, want failed with %q", event, tt.want)
			}
		})
	}
}

func TestProcessSkipsSettledReports(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := f.upload(t, labs.ReportSugar, sugarReport)
	f.reports.reports[id].Status = db.ReportCompleted

	p := New(Config{}, f.deps)

	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("Process on completed report returned %v", err)
	}

	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Process on missing report returned %v", err)
	}

	if len(f.reports.completed) != 0 || len(f.reports.failed) != 0 {
		t.Fatalf("settled reports were modified: completed=%v failed=%v", f.reports.completed, f.reports.failed)
	}
}

func TestProcessInvalidatesCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)

	f := newFixture(t)
	f.deps.Cache = client
	id := f.upload(t, labs.ReportSugar, sugarReport)

	key := cache.UserKey(f.user.ID.String(), "dashboard")
	if err := client.SetJSON(context.Background(), key, map[string]int{"total_reports": 0}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	if err := New(Config{}, f.deps).Process(context.Background(), id); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if mr.Exists(key) {
		t.Fatalf("cached dashboard survived processing")
	}
}

type stubAnalyzer struct {
	err error
}

func (s stubAnalyzer) Analyze(context.Context, string, labs.ReportType) (*analyzer.Analysis, error) {
	return nil, s.err
}

func (stubAnalyzer) Name() string { return "stub" }

func TestProcessAnalyzerTimeout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.deps.Analyzer = stubAnalyzer{err: fmt.Errorf("model call: %w", context.DeadlineExceeded)}
	id := f.upload(t, labs.ReportLipid, "TOTAL CHOLESTEROL 180 mg/dL")

	if err := New(Config{}, f.deps).Process(context.Background(), id); err == nil {
		t.Fatalf("Process succeeded, want error")
	}

	if got := f.reports.failed[id]; got != "processing timed out" {
		t.Fatalf("failure reason = %q", got)
	}
}

func TestProcessSaveInterruptedByShutdown(t *testing.T) {
	t.Parallel()

	saveErr := fmt.Errorf("failed to complete report: %w", context.Canceled)

	t.Run("shutdown keeps the report processing", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.reports.completeErr = saveErr
		id := f.upload(t, labs.ReportSugar, sugarReport)

		p := New(Config{}, f.deps)

		base, cancel := context.WithCancel(context.Background())
		cancel()
		p.baseCtx = base

		if err := p.Process(context.Background(), id); !errors.Is(err, context.Canceled) {
			t.Fatalf("Process = %v, want context.Canceled", err)
		}

		if _, failed := f.reports.failed[id]; failed {
			t.Fatal("interrupted report was marked failed")
		}

		if got := f.reports.reports[id].Status; got != db.ReportProcessing {
			t.Fatalf("status = %q, want processing", got)
		}
	})

	t.Run("cancellation while running marks failed", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.reports.completeErr = saveErr
		id := f.upload(t, labs.ReportSugar, sugarReport)

		if err := New(Config{}, f.deps).Process(context.Background(), id); err == nil {
			t.Fatal("Process succeeded, want error")
		}

		if _, failed := f.reports.failed[id]; !failed {
			t.Fatal("report was not marked failed")
		}
	})
}

func TestFailureReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", storage.ErrObjectNotFound), "uploaded file is missing"},
		{fmt.Errorf("x: %w", textextract.ErrNotFound), "uploaded file is missing"},
		{fmt.Errorf("x: %w", textextract.ErrUnreadable), "no text could be extracted from the file"},
		{fmt.Errorf("x: %w", textextract.ErrUpstream), "text recognition service unavailable"},
		{context.DeadlineExceeded, "processing timed out"},
		{errors.New("boom"), "processing failed"},
	}

	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Fatalf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSubmitLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := New(Config{Workers: 1}, f.deps)

	if err := p.Submit(Job{ReportID: uuid.New()}); !errors.Is(err, errNotStarted) {
		t.Fatalf("Submit before Start = %v, want errNotStarted", err)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := p.Start(context.Background()); !errors.Is(err, errAlreadyStarted) {
		t.Fatalf("second Start = %v, want errAlreadyStarted", err)
	}

	id := f.upload(t, labs.ReportSugar, sugarReport)
	if err := p.Submit(Job{ReportID: id}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The startup requeue may also have picked the report up; the second
	// run skips it because it is no longer processing.
	waitEvent(t, f.notifier.events)

	p.Stop()
	p.Stop()

	if err := p.Submit(Job{ReportID: id}); !errors.Is(err, ErrStopped) {
		t.Fatalf("Submit after Stop = %v, want ErrStopped", err)
	}
}

func TestSubmitQueueFull(t *testing.T) {
	t.Parallel()

	p := New(Config{QueueSize: 1}, newFixture(t).deps)
	// Mark started without workers so nothing drains the queue.
	p.started = true

	if err := p.Submit(Job{ReportID: uuid.New()}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	if err := p.Submit(Job{ReportID: uuid.New()}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Submit = %v, want ErrQueueFull", err)
	}
}

func TestStartRequeuesPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.upload(t, labs.ReportSugar, sugarReport)
	second := f.upload(t, labs.ReportSugar, sugarReport)

	p := New(Config{Workers: 2}, f.deps)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	seen := map[uuid.UUID]bool{}
	for range 2 {
		seen[waitEvent(t, f.notifier.events).Report.ID] = true
	}

	if !seen[first] || !seen[second] {
		t.Fatalf("requeued reports = %v, want %s and %s", seen, first, second)
	}
}
