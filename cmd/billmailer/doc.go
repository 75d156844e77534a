// Package main hosts the billmailer CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into batch runs: `send`
// mails each resident the bill documents found for their flat, `plan` shows
// the same join without sending, and `check` runs the readiness probes on
// their own. Configuration resolution and logger setup live in
// commandContext so subcommands only deal with flags and rendering.
//
// Keep this package thin. New behaviour belongs in the internal packages and
// is surfaced here as a command or flag.
package main
