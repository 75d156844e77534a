// Package logs reads billmailer.log for the `billmailer logs` command.
//
// Tail returns the last N lines (optionally only those mentioning one batch)
// together with the byte offset reached, so a follow loop can keep polling
// from where it stopped without rereading the file.
package logs
