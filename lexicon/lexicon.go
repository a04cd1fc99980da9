// Package lexicon holds the per-field value dictionaries of a trail store.
// A lexicon maps value text to a compact id; id 0 is reserved for the
// empty value and never assigned to a real entry.
package lexicon

import (
	"github.com/pkg/errors"
)

const (
	// EmptyID the id of the empty value
	EmptyID uint64 = 0
)

var (
	ErrValueNotFound = errors.New("value id not found in lexicon")
)

type (
	// Lexicon read-only bidirectional id/text mapping of one field,
	// values[i] is the text of id i+1
	Lexicon struct {
		values []string
		ids    map[string]uint64
	}
)

// New build a lexicon from texts ordered by id, texts[0] gets id 1.
// empty and duplicated texts are rejected
func New(texts []string) (*Lexicon, error) {
	lex := &Lexicon{
		values: make([]string, 0, len(texts)),
		ids:    make(map[string]uint64, len(texts)),
	}
	for idx, text := range texts {
		if text == "" {
			return nil, errors.Errorf("empty text at position %d", idx)
		}
		if _, dup := lex.ids[text]; dup {
			return nil, errors.Errorf("duplicated text %q at position %d", text, idx)
		}
		lex.values = append(lex.values, text)
		lex.ids[text] = uint64(len(lex.values))
	}
	return lex, nil
}

// Lookup return the id of text; "" always resolves to EmptyID
func (lex *Lexicon) Lookup(text string) (id uint64, found bool) {
	if text == "" {
		return EmptyID, true
	}
	id, found = lex.ids[text]
	return
}

// Text return the text of id; EmptyID resolves to ""
func (lex *Lexicon) Text(id uint64) (string, error) {
	if id == EmptyID {
		return "", nil
	}
	if id > uint64(len(lex.values)) {
		return "", errors.Wrapf(ErrValueNotFound, "id:%d size:%d", id, len(lex.values))
	}
	return lex.values[id-1], nil
}

// Contains report whether id is a valid id of this lexicon, EmptyID included
func (lex *Lexicon) Contains(id uint64) bool {
	return id <= uint64(len(lex.values))
}

// Size number of real values, valid ids are [0, Size()]
func (lex *Lexicon) Size() int {
	return len(lex.values)
}

// Values return a copy of all texts ordered by id
func (lex *Lexicon) Values() []string {
	res := make([]string, len(lex.values))
	copy(res, lex.values)
	return res
}
