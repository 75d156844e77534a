// Package matcher joins roster entries to the bill documents that belong to
// them.
package matcher

import (
	"slices"

	"billmailer/internal/attachments"
	"billmailer/internal/flatkey"
	"billmailer/internal/roster"
)

// Group pairs one roster entry with every document whose filename normalizes
// to the entry's key. A group without documents is a skip, not an error.
type Group struct {
	Entry     roster.Entry
	Documents []attachments.Document
}

// Matched reports whether the group has anything to send.
func (g Group) Matched() bool {
	return len(g.Documents) > 0
}

// Match returns exactly one group per entry, in entry order. Matching is
// non-exclusive: entries sharing a key each receive the same documents.
// Entries and documents with an empty key never match.
func Match(entries []roster.Entry, docs []attachments.Document) []Group {
	index := indexDocuments(docs)
	groups := make([]Group, 0, len(entries))
	for _, entry := range entries {
		group := Group{Entry: entry}
		if entry.Key.Eligible() {
			group.Documents = slices.Clone(index[entry.Key])
		}
		groups = append(groups, group)
	}
	return groups
}

// Unmatched returns, in archive order, the documents that no entry claims.
func Unmatched(entries []roster.Entry, docs []attachments.Document) []attachments.Document {
	claimed := make(map[flatkey.Key]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Key.Eligible() {
			claimed[entry.Key] = struct{}{}
		}
	}
	var out []attachments.Document
	for _, doc := range docs {
		if _, ok := claimed[flatkey.FromFilename(doc.Name)]; !ok {
			out = append(out, doc)
		}
	}
	return out
}

func indexDocuments(docs []attachments.Document) map[flatkey.Key][]attachments.Document {
	index := make(map[flatkey.Key][]attachments.Document, len(docs))
	for _, doc := range docs {
		key := flatkey.FromFilename(doc.Name)
		if !key.Eligible() {
			continue
		}
		index[key] = append(index[key], doc)
	}
	return index
}
