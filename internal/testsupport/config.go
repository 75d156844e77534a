package testsupport

import (
	"path/filepath"
	"testing"

	"billmailer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// SMTP credentials are filled so ValidateSMTP passes; tests still send through
// a fake or dry-run transport.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.SMTP.Host = "127.0.0.1"
	cfgVal.SMTP.Port = 2525
	cfgVal.SMTP.Username = "office@society.example"
	cfgVal.SMTP.Password = "test"
	cfgVal.SMTP.From = "office@society.example"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// WithRosterColumns overrides the roster column names.
func WithRosterColumns(flat, email string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Roster.FlatColumn = flat
		b.cfg.Roster.EmailColumn = email
	}
}

// WithoutCredentials clears the SMTP username, password, and sender.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SMTP.Username = ""
		b.cfg.SMTP.Password = ""
		b.cfg.SMTP.From = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
