package logging

import "strings"

// FormatSubject builds the batch/flat subject string used in console output.
func FormatSubject(batchID, flat string) string {
	batchID = ShortBatchID(batchID)
	flat = strings.TrimSpace(flat)
	parts := make([]string, 0, 2)
	if batchID != "" {
		parts = append(parts, "Batch "+batchID)
	}
	if flat != "" {
		parts = append(parts, "Flat "+flat)
	}
	return strings.Join(parts, " · ")
}

// ShortBatchID keeps only the first block of a UUID batch ID; that is enough
// to tell runs apart within one log file.
func ShortBatchID(id string) string {
	id = strings.TrimSpace(id)
	if head, _, ok := strings.Cut(id, "-"); ok && head != "" {
		return head
	}
	return id
}
