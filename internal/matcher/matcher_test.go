package matcher_test

import (
	"testing"

	"billmailer/internal/attachments"
	"billmailer/internal/flatkey"
	"billmailer/internal/matcher"
	"billmailer/internal/roster"
)

func entry(raw, email string) roster.Entry {
	return roster.Entry{Key: flatkey.Normalize(raw), Email: email, Raw: raw}
}

func doc(name string) attachments.Document {
	return attachments.Document{Name: name, Content: []byte(name)}
}

func names(docs []attachments.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestMatchScenario(t *testing.T) {
	entries := []roster.Entry{entry("A-101", "a@x.com"), entry("B 202", "b@x.com")}
	docs := []attachments.Document{doc("A101.pdf"), doc("C303.pdf")}

	groups := matcher.Match(entries, docs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Entry.Email != "a@x.com" || len(groups[0].Documents) != 1 || groups[0].Documents[0].Name != "A101.pdf" {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if !groups[0].Matched() {
		t.Fatal("expected first group to be matched")
	}
	if groups[1].Entry.Key != "B202" || groups[1].Matched() {
		t.Fatalf("expected B202 group to be empty, got %+v", groups[1])
	}

	unmatched := matcher.Unmatched(entries, docs)
	if got := names(unmatched); len(got) != 1 || got[0] != "C303.pdf" {
		t.Fatalf("expected C303.pdf unmatched, got %v", got)
	}
}

func TestMatchPreservesEntryOrderAndCount(t *testing.T) {
	entries := []roster.Entry{
		entry("Z-9", "z@x.com"),
		entry("A-1", "a@x.com"),
		entry("M-5", "m@x.com"),
	}
	groups := matcher.Match(entries, []attachments.Document{doc("A1.pdf")})
	if len(groups) != len(entries) {
		t.Fatalf("expected %d groups, got %d", len(entries), len(groups))
	}
	for i := range entries {
		if groups[i].Entry != entries[i] {
			t.Fatalf("group %d entry = %+v, want %+v", i, groups[i].Entry, entries[i])
		}
	}
}

func TestMatchCollectsMultipleDocumentsInArchiveOrder(t *testing.T) {
	entries := []roster.Entry{entry("Row House 12", "rh@x.com")}
	docs := []attachments.Document{
		doc("RH-12.pdf"),
		doc("B202.pdf"),
		doc("rowhouse 12.PDF"),
	}
	groups := matcher.Match(entries, docs)
	got := names(groups[0].Documents)
	if len(got) != 2 || got[0] != "RH-12.pdf" || got[1] != "rowhouse 12.PDF" {
		t.Fatalf("unexpected documents: %v", got)
	}
}

func TestMatchIsNonExclusive(t *testing.T) {
	entries := []roster.Entry{entry("A-101", "owner@x.com"), entry("a 101", "tenant@x.com")}
	docs := []attachments.Document{doc("A101.pdf")}

	groups := matcher.Match(entries, docs)
	for i, g := range groups {
		if len(g.Documents) != 1 || g.Documents[0].Name != "A101.pdf" {
			t.Fatalf("group %d expected A101.pdf, got %v", i, names(g.Documents))
		}
	}

	groups[0].Documents[0].Name = "mutated"
	if groups[1].Documents[0].Name != "A101.pdf" {
		t.Fatal("groups must not share document slices")
	}
}

func TestMatchIgnoresEmptyKeys(t *testing.T) {
	entries := []roster.Entry{entry("", "blank@x.com"), entry("   ", "spaces@x.com")}
	docs := []attachments.Document{doc(".pdf"), doc(" .pdf"), doc("-.pdf")}

	groups := matcher.Match(entries, docs)
	for i, g := range groups {
		if g.Matched() {
			t.Fatalf("group %d should not match, got %v", i, names(g.Documents))
		}
	}
	if got := matcher.Unmatched(entries, docs); len(got) != len(docs) {
		t.Fatalf("expected all documents unmatched, got %v", names(got))
	}
}

func TestMatchRequiresExactKeyEquality(t *testing.T) {
	entries := []roster.Entry{entry("C/303", "c@x.com")}
	docs := []attachments.Document{doc("C303.pdf"), doc("C.303.pdf")}

	groups := matcher.Match(entries, docs)
	if groups[0].Matched() {
		t.Fatalf("expected no fuzzy match, got %v", names(groups[0].Documents))
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	if groups := matcher.Match(nil, []attachments.Document{doc("A101.pdf")}); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
	groups := matcher.Match([]roster.Entry{entry("A-101", "a@x.com")}, nil)
	if len(groups) != 1 || groups[0].Matched() {
		t.Fatalf("expected one empty group, got %+v", groups)
	}
}
