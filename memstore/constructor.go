// Package memstore is an in-memory trail store: a Constructor collects raw
// events per cookie and Finalize freezes them into an edge-encoded, read-only
// Store whose trails are packed as msgpack records.
package memstore

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	tf "github.com/echoface/trail_filter"
	"github.com/echoface/trail_filter/lexicon"
)

const (
	MaxValueSize = 1024
)

var (
	ErrFinalized   = errors.New("constructor already finalized")
	ErrFieldCount  = errors.New("number of values does not match number of fields")
	ErrValueTooBig = errors.New("value exceeds maximum value size")
)

type (
	Constructor struct {
		fields   []string
		fieldIDs map[string]tf.FieldID
		allocs   []*lexicon.Allocator

		// cookies in first seen order
		cookies []uuid.UUID
		trails  map[uuid.UUID][]pendingEvent

		numEvents uint64
		finalized bool
	}

	pendingEvent struct {
		timestamp uint64
		values    []uint64
	}
)

// NewConstructor start a store with the given field names, at most
// MaxNumFields unique non-empty names
func NewConstructor(fields ...string) (*Constructor, error) {
	if len(fields) > tf.MaxNumFields {
		return nil, errors.Errorf("too many fields:%d, maximum %d supported", len(fields), tf.MaxNumFields)
	}
	cons := &Constructor{
		fields:   make([]string, 0, len(fields)),
		fieldIDs: make(map[string]tf.FieldID, len(fields)),
		allocs:   make([]*lexicon.Allocator, 0, len(fields)),
		trails:   make(map[uuid.UUID][]pendingEvent),
	}
	for idx, name := range fields {
		if name == "" {
			return nil, errors.Errorf("field %d has an empty name", idx)
		}
		if _, dup := cons.fieldIDs[name]; dup {
			return nil, errors.Errorf("field %s defined twice", name)
		}
		cons.fieldIDs[name] = tf.FieldID(idx)
		cons.fields = append(cons.fields, name)
		cons.allocs = append(cons.allocs, lexicon.NewAllocator())
	}
	return cons, nil
}

// Add append an event to the trail of cookie, values are ordered like the
// fields, "" means the field is not set
func (cons *Constructor) Add(cookie uuid.UUID, timestamp uint64, values []string) error {
	if cons.finalized {
		return ErrFinalized
	}
	if len(values) != len(cons.fields) {
		return errors.Wrapf(ErrFieldCount, "got %d values for %d fields", len(values), len(cons.fields))
	}
	for idx, v := range values {
		if len(v) > MaxValueSize {
			return errors.Wrapf(ErrValueTooBig, "field %s: %d bytes", cons.fields[idx], len(v))
		}
	}

	ids := make([]uint64, len(values))
	for idx, v := range values {
		ids[idx] = cons.allocs[idx].AllocStringID(v)
	}

	events, ok := cons.trails[cookie]
	if !ok {
		cons.cookies = append(cons.cookies, cookie)
	}
	cons.trails[cookie] = append(events, pendingEvent{timestamp: timestamp, values: ids})
	cons.numEvents++
	return nil
}

// AddValues like Add with values keyed by field name, absent fields are not set
func (cons *Constructor) AddValues(cookie uuid.UUID, timestamp uint64, values map[string]string) error {
	ordered := make([]string, len(cons.fields))
	for name, v := range values {
		id, ok := cons.fieldIDs[name]
		if !ok {
			return errors.Wrapf(tf.ErrFieldNotFound, "field %s", name)
		}
		ordered[id] = v
	}
	return cons.Add(cookie, timestamp, ordered)
}

// Finalize freeze the lexicons and edge-encode every trail; the constructor
// can't be used afterwards
func (cons *Constructor) Finalize() (*Store, error) {
	if cons.finalized {
		return nil, ErrFinalized
	}
	cons.finalized = true

	store := &Store{
		fields:    cons.fields,
		fieldIDs:  cons.fieldIDs,
		lexicons:  make([]*lexicon.Lexicon, 0, len(cons.allocs)),
		cookies:   cons.cookies,
		trailIDs:  make(map[uuid.UUID]tf.TrailID, len(cons.cookies)),
		blobs:     make([][]byte, 0, len(cons.cookies)),
		numEvents: cons.numEvents,
	}
	for _, alloc := range cons.allocs {
		store.lexicons = append(store.lexicons, alloc.Freeze())
	}

	for idx, cookie := range cons.cookies {
		events := cons.trails[cookie]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].timestamp < events[j].timestamp
		})
		blob, err := encodeTrail(events, len(cons.fields))
		if err != nil {
			return nil, errors.Wrapf(err, "encode trail of %s", cookie)
		}
		store.trailIDs[cookie] = tf.TrailID(idx)
		store.blobs = append(store.blobs, blob)
	}
	cons.trails = nil

	tf.LogDebug("store finalized, fields:%d trails:%d events:%d",
		len(store.fields), len(store.cookies), store.numEvents)
	return store, nil
}

// encodeTrail write events as msgpack [timestamp, [item...]] records where
// items hold only the fields changed since the previous event
func encodeTrail(events []pendingEvent, numFields int) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)

	prev := make([]uint64, numFields)
	items := make([]tf.Item, 0, numFields)
	for _, ev := range events {
		items = items[:0]
		for field, value := range ev.values {
			if value != prev[field] {
				items = append(items, tf.NewItem(tf.FieldID(field), tf.ValueID(value)))
			}
		}
		copy(prev, ev.values)

		if err := encodeRecord(enc, ev.timestamp, items); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeRecord(enc *msgpack.Encoder, timestamp uint64, items []tf.Item) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeUint(timestamp); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := enc.EncodeUint(uint64(item)); err != nil {
			return err
		}
	}
	return nil
}
