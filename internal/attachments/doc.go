// Package attachments extracts per-flat bill documents from the zip archive the
// billing software produces each month.
//
// Only members ending in .pdf are kept; folders and other files are ignored.
// Each Document carries its base filename, which the matcher normalizes to
// find the flat it belongs to.
package attachments
