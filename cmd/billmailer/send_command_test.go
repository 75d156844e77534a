package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"billmailer/internal/services"
	"billmailer/internal/testsupport"
)

func TestSendDryRunReportsEveryEntry(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"send", "--roster", env.rosterPath, "--archive", env.archivePath,
		"--month", "aug", "--year", "25", "--dry-run",
	}, env.configPath)
	if err != nil {
		t.Fatalf("send --dry-run: %v", err)
	}

	requireContains(t, out, "[OK] sent to a@x.com (2 attachments)")
	requireContains(t, out, "[OK] sent to b@x.com (1 attachment)")
	requireContains(t, out, "[WARN] skipped: no matching document")
	requireContains(t, out, "(dry run): 2 sent, 1 skipped, 0 failed")
	requireContains(t, out, "Unmatched documents: D404.pdf")

	// Live lines arrive in roster order before the table.
	a := strings.Index(out, "sent to a@x.com")
	b := strings.Index(out, "sent to b@x.com")
	c := strings.Index(out, "skipped: no matching document")
	if a < 0 || a > b || b > c {
		t.Fatalf("expected roster order in output:\n%s", out)
	}
}

func TestSendDryRunJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"send", "--roster", env.rosterPath, "--archive", env.archivePath, "--dry-run", "--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("send --json: %v", err)
	}

	var report sendReportJSON
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if !report.DryRun || report.BatchID == "" {
		t.Fatalf("unexpected header: %+v", report)
	}
	if report.Sent != 2 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	first := report.Results[0]
	if first.Row != 2 || first.Flat != "A101" || first.Raw != "A-101" || first.Attachments != 2 || first.Outcome != "sent" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	last := report.Results[2]
	if last.Outcome != "skipped" || last.Detail != "no matching document" {
		t.Fatalf("unexpected last result: %+v", last)
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0] != "D404.pdf" {
		t.Fatalf("unexpected unmatched documents: %v", report.Unmatched)
	}
}

func TestSendMissingRosterIsInputError(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{
		"send", "--roster", filepath.Join(env.baseDir, "missing.csv"), "--archive", env.archivePath, "--dry-run",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing roster")
	}
	if code := services.ExitCode(err); code != services.ExitInput {
		t.Fatalf("exit code = %d, want %d (%v)", code, services.ExitInput, err)
	}
	requireContains(t, stderr, "Roster:")
	requireContains(t, stderr, "does not exist")
}

func TestSendRosterWithoutColumnsSendsNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCSV(t, env.rosterPath, [][]string{
		{"Flat", "Mail"},
		{"A101", "a@x.com"},
	})

	out, _, err := runCLI(t, []string{
		"send", "--roster", env.rosterPath, "--archive", env.archivePath, "--dry-run",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected load error")
	}
	if code := services.ExitCode(err); code != services.ExitInput {
		t.Fatalf("exit code = %d, want %d (%v)", code, services.ExitInput, err)
	}
	if strings.Contains(out, "sent to") {
		t.Fatalf("expected no sends, got:\n%s", out)
	}
}

func TestSendRequiresCredentialsUnlessDryRun(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutCredentials())

	_, stderr, err := runCLI(t, []string{
		"send", "--roster", env.rosterPath, "--archive", env.archivePath,
	}, env.configPath)
	if err == nil {
		t.Fatal("expected credential failure")
	}
	if code := services.ExitCode(err); code != services.ExitConfiguration {
		t.Fatalf("exit code = %d, want %d (%v)", code, services.ExitConfiguration, err)
	}
	requireContains(t, stderr, "SMTP credentials:")
}

func TestSendRequiresInputFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"send", "--dry-run"}, env.configPath); err == nil {
		t.Fatal("expected missing flag error")
	}
}
