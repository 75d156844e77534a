// Package notifications delivers batch events via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Individual event
// kinds can be switched off with the batch_start, batch_complete, and errors
// flags. The batch runner depends only on the Service interface.
package notifications
