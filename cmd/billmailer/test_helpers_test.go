package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"billmailer/internal/config"
	"billmailer/internal/testsupport"
)

type cliTestEnv struct {
	cfg         *config.Config
	configPath  string
	rosterPath  string
	archivePath string
	baseDir     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{config.EnvSMTPUsername, config.EnvSMTPPassword, config.EnvSMTPFrom, config.EnvNtfyTopic} {
		t.Setenv(key, "")
	}
	// config.Load reads .env from the working directory.
	t.Chdir(base)

	env := &cliTestEnv{
		cfg:         cfg,
		configPath:  filepath.Join(base, "config.toml"),
		rosterPath:  filepath.Join(base, "roster.csv"),
		archivePath: filepath.Join(base, "bills.zip"),
		baseDir:     base,
	}
	writeTestConfig(t, env.configPath, cfg)

	testsupport.WriteCSV(t, env.rosterPath, [][]string{
		{"FlatNo", "Email"},
		{"A-101", "a@x.com"},
		{"b 202", "b@x.com"},
		{"C303", "c@x.com"},
	})
	testsupport.WriteZip(t, env.archivePath,
		testsupport.Member{Name: "A101.pdf", Content: testsupport.PDF(2)},
		testsupport.Member{Name: "bills/a101.PDF", Content: testsupport.PDF(1)},
		testsupport.Member{Name: "B202.pdf", Content: testsupport.PDF(1)},
		testsupport.Member{Name: "D404.pdf", Content: testsupport.PDF(1)},
	)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
