// Package preflight provides readiness checks for the files, directories,
// and SMTP relay a mailing batch depends on.
//
// These checks run in two contexts:
//   - The CLI "check" command runs RunAll and prints every result.
//   - "send" runs RunAll before taking the batch lock and refuses to start
//     when any check fails, so a typo in a path never mails half a roster.
package preflight
