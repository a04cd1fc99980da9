package memstore

import (
	"bytes"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	tf "github.com/echoface/trail_filter"
	"github.com/echoface/trail_filter/lexicon"
)

type (
	// Store a finalized read-only trail store, safe for concurrent readers
	Store struct {
		fields   []string
		fieldIDs map[string]tf.FieldID
		lexicons []*lexicon.Lexicon

		cookies  []uuid.UUID
		trailIDs map[uuid.UUID]tf.TrailID
		// blobs[trail] msgpack records of one trail
		blobs [][]byte

		numEvents uint64
	}

	rawCursor struct {
		dec    *msgpack.Decoder
		record tf.RawRecord
		err    error
		done   bool
	}
)

var _ tf.Store = (*Store)(nil)

func (s *Store) Fields() []string {
	res := make([]string, len(s.fields))
	copy(res, s.fields)
	return res
}

func (s *Store) FieldID(name string) (tf.FieldID, bool) {
	id, ok := s.fieldIDs[name]
	return id, ok
}

func (s *Store) Lexicon(field tf.FieldID) (*lexicon.Lexicon, error) {
	if int(field) >= len(s.lexicons) {
		return nil, errors.Wrapf(tf.ErrFieldNotFound, "field id %d", field)
	}
	return s.lexicons[field], nil
}

func (s *Store) NumTrails() uint64 {
	return uint64(len(s.cookies))
}

func (s *Store) NumEvents() uint64 {
	return s.numEvents
}

func (s *Store) Cookie(trail tf.TrailID) (tf.Cookie, error) {
	if trail >= tf.TrailID(len(s.cookies)) {
		return uuid.Nil, errors.Wrapf(tf.ErrTrailNotFound, "trail:%d total:%d", trail, len(s.cookies))
	}
	return s.cookies[trail], nil
}

func (s *Store) TrailID(cookie tf.Cookie) (tf.TrailID, bool) {
	id, ok := s.trailIDs[cookie]
	return id, ok
}

// RawStream decode the records of trail lazily
func (s *Store) RawStream(trail tf.TrailID) (tf.RawCursor, error) {
	if trail >= tf.TrailID(len(s.blobs)) {
		return nil, errors.Wrapf(tf.ErrTrailNotFound, "trail:%d total:%d", trail, len(s.blobs))
	}
	return &rawCursor{
		dec: msgpack.NewDecoder(bytes.NewReader(s.blobs[trail])),
	}, nil
}

func (c *rawCursor) Next() bool {
	if c.done {
		return false
	}
	n, err := c.dec.DecodeArrayLen()
	if err != nil {
		c.done = true
		if !errors.Is(err, io.EOF) {
			c.err = errors.Wrap(err, "decode record")
		}
		return false
	}
	if n != 2 {
		c.done = true
		c.err = errors.Errorf("record must have 2 elements, got %d", n)
		return false
	}
	if c.err = c.decodeRecord(); c.err != nil {
		c.done = true
		return false
	}
	return true
}

func (c *rawCursor) decodeRecord() error {
	ts, err := c.dec.DecodeUint64()
	if err != nil {
		return errors.Wrap(err, "decode timestamp")
	}
	n, err := c.dec.DecodeArrayLen()
	if err != nil {
		return errors.Wrap(err, "decode items")
	}
	if n < 0 {
		return errors.New("items must be an array")
	}
	items := make([]tf.Item, n)
	for idx := range items {
		v, err := c.dec.DecodeUint64()
		if err != nil {
			return errors.Wrapf(err, "decode item %d", idx)
		}
		items[idx] = tf.Item(v)
	}
	c.record = tf.RawRecord{Timestamp: ts, Items: items}
	return nil
}

func (c *rawCursor) Record() tf.RawRecord {
	return c.record
}

func (c *rawCursor) Err() error {
	return c.err
}
