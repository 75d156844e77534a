// Package mailer composes bill emails and hands them to an SMTP relay.
//
// Composer renders the subject and body templates for a billing cycle and
// attaches a resident's documents. Transport is the delivery seam: the SMTP
// implementation (gomail) dials the relay once per message, while the dry-run
// implementation validates and records messages without network I/O so a batch
// can be rehearsed end to end.
package mailer
