package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSMTP()
	c.normalizeMail()
	c.normalizeRoster()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSMTP() {
	c.SMTP.Host = strings.TrimSpace(c.SMTP.Host)
	c.SMTP.Username = envFallback(strings.TrimSpace(c.SMTP.Username), EnvSMTPUsername)
	c.SMTP.From = envFallback(strings.TrimSpace(c.SMTP.From), EnvSMTPFrom)
	// App passwords are pasted with spaces by some providers; keep them verbatim.
	if c.SMTP.Password == "" {
		if value, ok := os.LookupEnv(EnvSMTPPassword); ok {
			c.SMTP.Password = value
		}
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}
}

func (c *Config) normalizeMail() {
	c.Mail.Society = strings.TrimSpace(c.Mail.Society)
}

func (c *Config) normalizeRoster() {
	c.Roster.FlatColumn = strings.TrimSpace(c.Roster.FlatColumn)
	if c.Roster.FlatColumn == "" {
		c.Roster.FlatColumn = defaultFlatColumn
	}
	c.Roster.EmailColumn = strings.TrimSpace(c.Roster.EmailColumn)
	if c.Roster.EmailColumn == "" {
		c.Roster.EmailColumn = defaultEmailColumn
	}
	c.Roster.Sheet = strings.TrimSpace(c.Roster.Sheet)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = envFallback(strings.TrimSpace(c.Notifications.NtfyTopic), EnvNtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value, key string) string {
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
