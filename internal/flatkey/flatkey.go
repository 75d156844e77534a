package flatkey

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key is the canonical form of a flat identifier. Two identifiers refer to the
// same flat when their keys are equal.
type Key string

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// Eligible reports whether the key may take part in matching. Blank keys come
// from missing identifiers and never match anything.
func (k Key) Eligible() bool {
	return k != ""
}

// Normalize canonicalizes a raw identifier such as "Row House 12" or " a - 101 ".
//
// The phrase replacements run before spaces are stripped so both "ROW HOUSE"
// and "ROWHOUSE" spellings collapse to "RH". A second ROWHOUSE pass and a final
// trim cover spellings that only appear once separators are gone ("ROW-HOUSE",
// "ROW  HOUSE"), which keeps Normalize idempotent.
func Normalize(raw string) Key {
	s := cases.Upper(language.Und).String(raw)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "ROW HOUSE", "RH")
	s = strings.ReplaceAll(s, "ROWHOUSE", "RH")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "ROWHOUSE", "RH")
	return Key(strings.TrimSpace(s))
}

// FromValue normalizes an untyped cell value. Anything that is not a string
// (nil, numbers, dates) yields the empty key.
func FromValue(v any) Key {
	switch t := v.(type) {
	case string:
		return Normalize(t)
	case *string:
		if t == nil {
			return ""
		}
		return Normalize(*t)
	default:
		return ""
	}
}

// FromFilename normalizes a document filename with its extension removed.
func FromFilename(name string) Key {
	return Normalize(Stem(name))
}

// Stem returns name without its final extension. Leading dots do not start an
// extension, so ".pdf" and "..pdf" are returned unchanged.
func Stem(name string) string {
	sep := strings.LastIndexAny(name, `/\`)
	dot := strings.LastIndexByte(name, '.')
	if dot <= sep {
		return name
	}
	for i := sep + 1; i < dot; i++ {
		if name[i] != '.' {
			return name[:dot]
		}
	}
	return name
}
