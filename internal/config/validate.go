package config

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Validate ensures the configuration is usable for planning and dry runs.
// Credentials are checked separately by ValidateSMTP because only a real send
// needs them.
func (c *Config) Validate() error {
	if err := c.validateSMTPRelay(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateRoster(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateSMTP reports whether the relay credentials needed to send mail are present.
func (c *Config) ValidateSMTP() error {
	if c.SMTP.Username == "" {
		return fmt.Errorf("smtp.username is required. Set %s or edit the config file", EnvSMTPUsername)
	}
	if c.SMTP.Password == "" {
		return fmt.Errorf("smtp.password is required. Set %s (or add it to %s)", EnvSMTPPassword, DotEnvFile)
	}
	if c.SMTP.From == "" {
		return errors.New("smtp.from must be set")
	}
	if !strings.Contains(c.SMTP.From, "@") {
		return fmt.Errorf("smtp.from %q is not an email address", c.SMTP.From)
	}
	return nil
}

func (c *Config) validateSMTPRelay() error {
	if c.SMTP.Host == "" {
		return errors.New("smtp.host must be set")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port must be between 1 and 65535, got %d", c.SMTP.Port)
	}
	return nil
}

func (c *Config) validateMail() error {
	templates := []struct{ key, text string }{
		{"mail.subject_template", c.Mail.SubjectTemplate},
		{"mail.body_template", c.Mail.BodyTemplate},
	}
	for _, tmpl := range templates {
		if strings.TrimSpace(tmpl.text) == "" {
			continue
		}
		if _, err := template.New(tmpl.key).Parse(tmpl.text); err != nil {
			return fmt.Errorf("%s: %w", tmpl.key, err)
		}
	}
	return nil
}

func (c *Config) validateRoster() error {
	if c.Roster.FlatColumn == c.Roster.EmailColumn {
		return fmt.Errorf("roster.flat_column and roster.email_column must differ (both %q)", c.Roster.FlatColumn)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of console, json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}
