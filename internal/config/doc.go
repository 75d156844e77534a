// Package config loads, normalizes, and validates billmailer configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file from the working directory,
// and honours environment fallbacks such as BILLMAILER_SMTP_PASSWORD so
// credentials never need to live in the TOML file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
