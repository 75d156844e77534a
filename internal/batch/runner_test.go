package batch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"billmailer/internal/attachments"
	"billmailer/internal/batch"
	"billmailer/internal/config"
	"billmailer/internal/dispatch"
	"billmailer/internal/logging"
	"billmailer/internal/mailer"
	"billmailer/internal/notifications"
	"billmailer/internal/roster"
	"billmailer/internal/services"
	"billmailer/internal/testsupport"
)

type recordingTransport struct {
	mu      sync.Mutex
	fail    map[string]error
	onSend  func(*mailer.Message)
	started []*mailer.Message
}

func (r *recordingTransport) Send(ctx context.Context, msg *mailer.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.started = append(r.started, msg)
	r.mu.Unlock()
	if r.onSend != nil {
		r.onSend(msg)
	}
	return r.fail[msg.To]
}

func (r *recordingTransport) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.started))
	for _, m := range r.started {
		out = append(out, m.To)
	}
	return out
}

type fixture struct {
	cfg         *config.Config
	rosterPath  string
	archivePath string
}

func newFixture(t *testing.T, rows [][]string, members ...testsupport.Member) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	dir := testsupport.BaseDir(cfg)
	f := fixture{
		cfg:         cfg,
		rosterPath:  filepath.Join(dir, "roster.csv"),
		archivePath: filepath.Join(dir, "bills.zip"),
	}
	testsupport.WriteCSV(t, f.rosterPath, rows)
	testsupport.WriteZip(t, f.archivePath, members...)
	return f
}

func (f fixture) options() batch.Options {
	return batch.Options{RosterPath: f.rosterPath, ArchivePath: f.archivePath, Month: "aug", Year: "25"}
}

func scenarioFixture(t *testing.T) fixture {
	return newFixture(t,
		[][]string{
			{"FlatNo", "Email"},
			{"A-101", "a@x.com"},
			{"b 202", "b@x.com"},
			{"C303", "c@x.com"},
		},
		testsupport.Member{Name: "A101.pdf", Content: testsupport.PDF(1)},
		testsupport.Member{Name: "B202.pdf", Content: testsupport.PDF(1)},
		testsupport.Member{Name: "bills/a101.PDF", Content: testsupport.PDF(2)},
		testsupport.Member{Name: "notes.txt", Content: []byte("ignored")},
		testsupport.Member{Name: "D404.pdf", Content: testsupport.PDF(1)},
	)
}

func newRunner(t *testing.T, cfg *config.Config, notifier notifications.Service, opts ...batch.Option) *batch.Runner {
	t.Helper()
	r, err := batch.New(cfg, logging.NewNop(), notifier, opts...)
	if err != nil {
		t.Fatalf("batch.New: %v", err)
	}
	return r
}

func TestRunSendsMatchedBillsAndSkipsTheRest(t *testing.T) {
	f := scenarioFixture(t)
	transport := &recordingTransport{}
	var hooked []dispatch.Result
	runner := newRunner(t, f.cfg, nil,
		batch.WithTransport(transport),
		batch.WithResultHook(func(r dispatch.Result) { hooked = append(hooked, r) }),
	)

	report, err := runner.Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.BatchID == "" || report.Cycle != "AUG 25" || report.Interrupted {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if got := strings.Join(transport.recipients(), ","); got != "a@x.com,b@x.com" {
		t.Fatalf("unexpected recipients %q", got)
	}
	first := transport.started[0]
	if len(first.Attachments) != 2 || first.Attachments[0].Filename != "A101.pdf" || first.Attachments[1].Filename != "a101.PDF" {
		t.Fatalf("unexpected attachments for A101: %+v", first.Attachments)
	}
	if first.Subject != "MAINTENANCE BILL & SUPPLEMENTARY BILL FOR THE MONTH OF AUG 25" {
		t.Fatalf("unexpected subject %q", first.Subject)
	}
	if first.From != f.cfg.SMTP.From {
		t.Fatalf("unexpected sender %q", first.From)
	}

	if len(report.Results) != 3 || len(hooked) != 3 {
		t.Fatalf("expected 3 results, got %d (hook %d)", len(report.Results), len(hooked))
	}
	wantOutcomes := []dispatch.Outcome{dispatch.Sent, dispatch.Sent, dispatch.SkippedNoMatch}
	for i, want := range wantOutcomes {
		if report.Results[i].Outcome != want {
			t.Fatalf("result %d outcome = %s, want %s", i, report.Results[i].Outcome, want)
		}
	}
	if report.Summary != (dispatch.Summary{Sent: 2, Skipped: 1}) {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if len(report.Plan.Unmatched) != 1 || report.Plan.Unmatched[0].Name != "D404.pdf" {
		t.Fatalf("unexpected unmatched documents %+v", report.Plan.Unmatched)
	}
	if report.Plan.Matched() != 2 {
		t.Fatalf("expected 2 matched groups, got %d", report.Plan.Matched())
	}
}

func TestRunContinuesAfterTransportFailure(t *testing.T) {
	f := newFixture(t,
		[][]string{{"FlatNo", "Email"}, {"A101", "a@x.com"}, {"B202", "b@x.com"}, {"C303", "c@x.com"}},
		testsupport.Member{Name: "A101.pdf", Content: []byte("a")},
		testsupport.Member{Name: "B202.pdf", Content: []byte("b")},
		testsupport.Member{Name: "C303.pdf", Content: []byte("c")},
	)
	relayErr := errors.New("421 service not available")
	transport := &recordingTransport{fail: map[string]error{"b@x.com": relayErr}}

	report, err := newRunner(t, f.cfg, nil, batch.WithTransport(transport)).Run(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.Join(transport.recipients(), ","); got != "a@x.com,b@x.com,c@x.com" {
		t.Fatalf("expected all three attempted, got %q", got)
	}
	if report.Results[1].Outcome != dispatch.Failed || !errors.Is(report.Results[1].Err, relayErr) {
		t.Fatalf("expected second entry failed with relay error, got %+v", report.Results[1])
	}
	if report.Results[2].Outcome != dispatch.Sent {
		t.Fatalf("expected third entry sent, got %s", report.Results[2].Outcome)
	}
	if report.Summary != (dispatch.Summary{Sent: 2, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
}

func TestRunAbortsBeforeSendingWhenRosterInvalid(t *testing.T) {
	f := newFixture(t,
		[][]string{{"FlatNo", "Mail"}, {"A101", "a@x.com"}},
		testsupport.Member{Name: "A101.pdf", Content: []byte("a")},
	)
	transport := &recordingTransport{}

	report, err := newRunner(t, f.cfg, nil, batch.WithTransport(transport)).Run(context.Background(), f.options())
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}
	var loadErr *roster.LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, roster.ErrMissingColumn) {
		t.Fatalf("expected roster LoadError, got %v", err)
	}
	if services.ExitCode(err) != services.ExitInput {
		t.Fatalf("expected input exit code, got %d", services.ExitCode(err))
	}
	if len(transport.recipients()) != 0 {
		t.Fatal("expected no sends")
	}
}

func TestRunAbortsBeforeSendingWhenTemplateNamesUnknownField(t *testing.T) {
	f := scenarioFixture(t)
	f.cfg.Mail.BodyTemplate = "Bill for {{.Flat}}"
	transport := &recordingTransport{}

	report, err := newRunner(t, f.cfg, nil, batch.WithTransport(transport)).Run(context.Background(), f.options())
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.ExitCode(err) != services.ExitConfiguration {
		t.Fatalf("expected config exit code, got %d", services.ExitCode(err))
	}
	if len(transport.recipients()) != 0 {
		t.Fatal("expected no sends")
	}
}

func TestRunAbortsWhenArchiveUnreadable(t *testing.T) {
	f := newFixture(t, [][]string{{"FlatNo", "Email"}, {"A101", "a@x.com"}})
	testsupport.WriteCSV(t, f.archivePath, [][]string{{"not", "a zip"}})

	_, err := newRunner(t, f.cfg, nil, batch.WithTransport(&recordingTransport{})).Run(context.Background(), f.options())
	var extractErr *attachments.ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractError, got %v", err)
	}
}

func TestRunRejectsConcurrentBatch(t *testing.T) {
	f := scenarioFixture(t)
	if err := f.cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	held := flock.New(f.cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	transport := &recordingTransport{}
	_, err = newRunner(t, f.cfg, nil, batch.WithTransport(transport)).Run(context.Background(), f.options())
	if !errors.Is(err, batch.ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
	if len(transport.recipients()) != 0 {
		t.Fatal("expected no sends while locked")
	}
}

func TestRunRequiresCredentialsUnlessDryRun(t *testing.T) {
	f := scenarioFixture(t)
	f.cfg.SMTP.Password = ""

	runner := newRunner(t, f.cfg, nil, batch.WithTransport(&recordingTransport{}))
	_, err := runner.Run(context.Background(), f.options())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	opts := f.options()
	opts.DryRun = true
	report, err := newRunner(t, f.cfg, nil).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("dry run returned error: %v", err)
	}
	if !report.DryRun || report.Summary.Sent != 2 {
		t.Fatalf("unexpected dry-run report %+v", report.Summary)
	}
}

func TestRunValidatesOptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := newRunner(t, cfg, nil).Run(context.Background(), batch.Options{ArchivePath: "bills.zip"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunReturnsPartialReportWhenCancelled(t *testing.T) {
	f := scenarioFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport := &recordingTransport{onSend: func(*mailer.Message) { cancel() }}

	report, err := newRunner(t, f.cfg, nil, batch.WithTransport(transport)).Run(ctx, f.options())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || !report.Interrupted || len(report.Results) != 1 {
		t.Fatalf("expected partial report with one result, got %+v", report)
	}
	if report.Results[0].Outcome != dispatch.Sent {
		t.Fatalf("expected the in-flight send to stay sent, got %s", report.Results[0].Outcome)
	}
}

func TestRunPublishesNotifications(t *testing.T) {
	var (
		mu     sync.Mutex
		titles []string
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		bodies = append(bodies, string(body))
		mu.Unlock()
	}))
	defer server.Close()

	f := scenarioFixture(t)
	f.cfg.Notifications.NtfyTopic = server.URL

	notifier := notifications.NewService(f.cfg)
	if _, err := newRunner(t, f.cfg, notifier, batch.WithTransport(&recordingTransport{})).Run(context.Background(), f.options()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(titles, "|"); got != "billmailer - Batch Started|billmailer - Batch Complete" {
		t.Fatalf("unexpected notifications %q", got)
	}
	if !strings.Contains(bodies[0], "3 residents, 4 documents") {
		t.Fatalf("unexpected start body %q", bodies[0])
	}
	if !strings.Contains(bodies[1], "2 sent, 1 skipped") {
		t.Fatalf("unexpected completion body %q", bodies[1])
	}
}

func TestRunNotifiesOnInputError(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
	}))
	defer server.Close()

	f := newFixture(t, [][]string{{"Flat", "Email"}}, testsupport.Member{Name: "A101.pdf"})
	f.cfg.Notifications.NtfyTopic = server.URL

	if _, err := newRunner(t, f.cfg, notifications.NewService(f.cfg)).Run(context.Background(), f.options()); err == nil {
		t.Fatal("expected error")
	}
	if len(titles) != 1 || titles[0] != "billmailer - Error" {
		t.Fatalf("expected one error notification, got %v", titles)
	}
}

func TestPlanDoesNotLockOrSend(t *testing.T) {
	f := scenarioFixture(t)
	if err := f.cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	held := flock.New(f.cfg.LockPath())
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	plan, err := newRunner(t, f.cfg, nil).Plan(context.Background(), f.options())
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Entries) != 3 || len(plan.Documents) != 4 || len(plan.Groups) != 3 {
		t.Fatalf("unexpected plan sizes: %d entries, %d docs, %d groups", len(plan.Entries), len(plan.Documents), len(plan.Groups))
	}
}

func TestOptionsCycle(t *testing.T) {
	if got := (batch.Options{Month: " sep ", Year: "2025"}).Cycle(); got != "SEP 2025" {
		t.Fatalf("unexpected cycle %q", got)
	}
	if got := (batch.Options{}).Cycle(); got != "" {
		t.Fatalf("expected empty cycle, got %q", got)
	}
}
