// Package batch runs one mailing batch end to end.
//
// A Runner takes an advisory lock under paths.state_dir so two batches never
// mail the same society at once, stamps the run with a UUID batch ID carried
// on the context for logging, loads the roster and the bill archive
// concurrently, matches them, and hands the groups to the dispatcher. ntfy
// notifications bracket the run when configured.
//
// Plan performs only the load and match steps and is what "billmailer plan"
// shows before anything is sent.
package batch
