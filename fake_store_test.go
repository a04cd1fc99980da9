package trail_filter

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/echoface/trail_filter/lexicon"
)

type (
	// fakeStore serve hand written raw records, records may be corrupt
	fakeStore struct {
		fields    []string
		lexicons  []*lexicon.Lexicon
		cookies   []Cookie
		trails    [][]RawRecord
		streamErr error
	}

	sliceCursor struct {
		records []RawRecord
		pos     int
		err     error
	}
)

func newFakeStore(lexicons map[string][]string, order ...string) *fakeStore {
	s := &fakeStore{}
	for _, name := range order {
		lex, err := lexicon.New(lexicons[name])
		if err != nil {
			panic(err)
		}
		s.fields = append(s.fields, name)
		s.lexicons = append(s.lexicons, lex)
	}
	return s
}

func (s *fakeStore) addTrail(records ...RawRecord) TrailID {
	s.trails = append(s.trails, records)
	s.cookies = append(s.cookies, uuid.New())
	return TrailID(len(s.trails) - 1)
}

func (s *fakeStore) Fields() []string { return s.fields }

func (s *fakeStore) FieldID(name string) (FieldID, bool) {
	for idx, f := range s.fields {
		if f == name {
			return FieldID(idx), true
		}
	}
	return 0, false
}

func (s *fakeStore) Lexicon(field FieldID) (*lexicon.Lexicon, error) {
	if int(field) >= len(s.lexicons) {
		return nil, ErrFieldNotFound
	}
	return s.lexicons[field], nil
}

func (s *fakeStore) NumTrails() uint64 { return uint64(len(s.trails)) }

func (s *fakeStore) Cookie(trail TrailID) (Cookie, error) {
	if int(trail) >= len(s.cookies) {
		return uuid.Nil, ErrTrailNotFound
	}
	return s.cookies[trail], nil
}

func (s *fakeStore) TrailID(cookie Cookie) (TrailID, bool) {
	for idx, c := range s.cookies {
		if c == cookie {
			return TrailID(idx), true
		}
	}
	return 0, false
}

func (s *fakeStore) RawStream(trail TrailID) (RawCursor, error) {
	if int(trail) >= len(s.trails) {
		return nil, ErrTrailNotFound
	}
	return &sliceCursor{records: s.trails[trail], pos: -1, err: s.streamErr}, nil
}

func (c *sliceCursor) Next() bool {
	if c.pos+1 >= len(c.records) {
		c.pos = len(c.records)
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Record() RawRecord { return c.records[c.pos] }

func (c *sliceCursor) Err() error {
	if c.pos < len(c.records) {
		return nil
	}
	return c.err
}

var errTruncated = errors.New("truncated stream")

func rec(ts uint64, items ...Item) RawRecord {
	return RawRecord{Timestamp: ts, Items: items}
}
