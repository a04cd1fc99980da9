package trail_filter

import (
	"github.com/echoface/trail_filter/lexicon"
)

type (
	// Dictionary the field list and per-field lexicons of a finalized store
	Dictionary interface {
		// Fields ordered field names, the position is the FieldID
		Fields() []string

		FieldID(name string) (FieldID, bool)

		Lexicon(field FieldID) (*lexicon.Lexicon, error)
	}

	// RawCursor streams the edge-encoded records of one trail, ordered by
	// timestamp (stable on ties)
	RawCursor interface {
		Next() bool

		// Record valid until the next call of Next
		Record() RawRecord

		Err() error
	}

	// Store a finalized, read-only trail store
	Store interface {
		Dictionary

		NumTrails() uint64

		Cookie(trail TrailID) (Cookie, error)

		TrailID(cookie Cookie) (TrailID, bool)

		RawStream(trail TrailID) (RawCursor, error)
	}
)

// Lookup resolve text of field into a value id; an unknown field never
// resolves, not even the empty text
func Lookup(dict Dictionary, field, text string) (ValueID, bool) {
	fieldID, ok := dict.FieldID(field)
	if !ok {
		return EmptyValue, false
	}
	lex, err := dict.Lexicon(fieldID)
	if err != nil {
		return EmptyValue, false
	}
	id, found := lex.Lookup(text)
	return ValueID(id), found
}

// TextOf the inverse of Lookup
func TextOf(dict Dictionary, field FieldID, value ValueID) (string, error) {
	lex, err := dict.Lexicon(field)
	if err != nil {
		return "", err
	}
	return lex.Text(uint64(value))
}
