package config

const (
	defaultConfigPath            = "~/.config/billmailer/config.toml"
	projectConfigFile            = "billmailer.toml"
	defaultStateDir              = "~/.local/state/billmailer"
	defaultLogDir                = "~/.local/share/billmailer/logs"
	defaultSMTPHost              = "smtp.gmail.com"
	defaultSMTPPort              = 465
	defaultSociety               = "Avon Plaza CHSL"
	defaultFlatColumn            = "FlatNo"
	defaultEmailColumn           = "Email"
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Environment variables consulted when the matching TOML value is empty.
const (
	EnvSMTPUsername = "BILLMAILER_SMTP_USERNAME"
	EnvSMTPPassword = "BILLMAILER_SMTP_PASSWORD"
	EnvSMTPFrom     = "BILLMAILER_SMTP_FROM"
	EnvNtfyTopic    = "BILLMAILER_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults. Empty mail
// templates mean the mailer's built-in subject and body are used.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		SMTP: SMTP{
			Host: defaultSMTPHost,
			Port: defaultSMTPPort,
		},
		Mail: Mail{
			Society: defaultSociety,
		},
		Roster: Roster{
			FlatColumn:  defaultFlatColumn,
			EmailColumn: defaultEmailColumn,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			BatchStart:     true,
			BatchComplete:  true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
