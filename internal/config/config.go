package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DotEnvFile is read from the working directory before environment fallbacks
// are applied.
const DotEnvFile = ".env"

// LockFileName is the advisory lock created under paths.state_dir.
const LockFileName = "billmailer.lock"

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// SMTP contains relay connection and credential settings.
type SMTP struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Mail contains message composition settings.
type Mail struct {
	Society         string `toml:"society"`
	SubjectTemplate string `toml:"subject_template"`
	BodyTemplate    string `toml:"body_template"`
}

// Roster contains spreadsheet column mapping.
type Roster struct {
	FlatColumn  string `toml:"flat_column"`
	EmailColumn string `toml:"email_column"`
	Sheet       string `toml:"sheet"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	BatchStart     bool   `toml:"batch_start"`
	BatchComplete  bool   `toml:"batch_complete"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for billmailer.
//
// Configuration sections by subsystem:
//   - Paths: lock and log directories
//   - SMTP: relay address and credentials
//   - Mail: society name and message templates
//   - Roster: spreadsheet column names and sheet selection
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	SMTP          SMTP          `toml:"smtp"`
	Mail          Mail          `toml:"mail"`
	Roster        Roster        `toml:"roster"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// Load builds the effective configuration: defaults, then the TOML file (when
// one is found), then .env and environment fallbacks, then validation. It
// returns the config, the file path that was considered, and whether that
// file existed. An explicit path that does not exist is not an error; the
// defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, resolved, true, err
		}
	}
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, resolved, exists, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, resolved, exists, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, exists, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv populates unset environment variables from path. Variables that
// are already set win, so the shell can always override the file.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	switch {
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("load %s: %w", path, err)
	}
}
