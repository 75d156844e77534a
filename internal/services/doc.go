// Package services defines shared utilities consumed by the batch runner,
// the dispatcher, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, flat keys, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the CLI map a
//     failure to an exit code without string matching.
package services
