package trail_filter

import (
	"github.com/pkg/errors"
)

const (
	// EdgeEncoded yield only the items that changed at each admitted event
	EdgeEncoded ScanMode = iota
	// FullyResolved yield the resolved item of every field
	FullyResolved
	// MergedEdgeEncoded yield every field changed since the previously
	// admitted event, replaying the yielded events from the empty state
	// gives the resolved values at each of them
	MergedEdgeEncoded
)

type (
	ScanMode uint8

	// TrailDecoder resolve the edge-encoded records of a store; it holds no
	// per-scan state and can serve any number of cursors
	TrailDecoder struct {
		store Store
		// lexSizes[field] the largest valid value id of field
		lexSizes []uint64
	}

	/*TrailCursor a single pass over one trail*/
	// raw:      {f1:a,f2:x0} {f2:x1} {f2:x0} {}      {f2:x1}
	// resolved: (a,x0)       (a,x1)  (a,x0)  (a,x0) (a,x1)
	// f2 == x0:  ^                    ^       ^
	TrailCursor struct {
		trail  TrailID
		raw    RawCursor
		filter *CompiledFilter
		mode   ScanMode

		lexSizes []uint64
		// resolved the carry-forward arena, indexed by FieldID, owned by this cursor
		resolved []ValueID

		event   Event
		fullBuf []Item
		// dirty[field] field changed since the previously admitted event
		dirty []bool

		position int // raw records consumed
		count    int // events admitted
		err      error
		done     bool
	}
)

func (m ScanMode) Valid() bool {
	return m <= MergedEdgeEncoded
}

func NewTrailDecoder(store Store) (*TrailDecoder, error) {
	fields := store.Fields()
	if len(fields) > MaxNumFields {
		return nil, errors.Errorf("too many fields:%d, maximum %d supported", len(fields), MaxNumFields)
	}
	decoder := &TrailDecoder{
		store:    store,
		lexSizes: make([]uint64, len(fields)),
	}
	for idx := range fields {
		lex, err := store.Lexicon(FieldID(idx))
		if err != nil {
			return nil, errors.Wrapf(err, "lexicon of field %s", fields[idx])
		}
		decoder.lexSizes[idx] = uint64(lex.Size())
	}
	return decoder, nil
}

func (d *TrailDecoder) NumFields() int {
	return len(d.lexSizes)
}

// Scan open a cursor over trail, only events admitted by filter are yielded;
// a nil filter admits every event
func (d *TrailDecoder) Scan(trail TrailID, filter *CompiledFilter, mode ScanMode) (*TrailCursor, error) {
	if !mode.Valid() {
		return nil, errors.Errorf("unknown scan mode %d", mode)
	}
	if trail >= TrailID(d.store.NumTrails()) {
		return nil, errors.Wrapf(ErrTrailNotFound, "trail:%d total:%d", trail, d.store.NumTrails())
	}
	raw, err := d.store.RawStream(trail)
	if err != nil {
		return nil, errors.Wrapf(err, "open raw stream of trail %d", trail)
	}
	cursor := &TrailCursor{
		trail:    trail,
		raw:      raw,
		filter:   filter,
		mode:     mode,
		lexSizes: d.lexSizes,
		resolved: make([]ValueID, len(d.lexSizes)),
	}
	if mode == MergedEdgeEncoded {
		cursor.dirty = make([]bool, len(d.lexSizes))
	}
	return cursor, nil
}

func (c *TrailCursor) Trail() TrailID {
	return c.trail
}

// Next advance to the next admitted event. every raw record is applied to the
// resolved state, admitted or not, so later events see the right values
func (c *TrailCursor) Next() bool {
	if c.done {
		return false
	}
	for c.raw.Next() {
		rec := c.raw.Record()
		c.position++

		if err := c.apply(rec.Items); err != nil {
			LogDebug("trail %d corrupt record items:%v", c.trail, Items(rec.Items).DocString())
			c.fail(err)
			return false
		}
		if !c.filter.Admits(c.resolved) {
			continue
		}

		c.count++
		c.event.Timestamp = rec.Timestamp
		switch c.mode {
		case FullyResolved:
			c.event.Items = c.resolvedItems()
		case MergedEdgeEncoded:
			c.event.Items = c.dirtyItems()
		default:
			c.event.Items = rec.Items
		}
		return true
	}
	if err := c.raw.Err(); err != nil {
		c.fail(errors.Wrapf(ErrCorruptTrail, "trail:%d record:%d %v", c.trail, c.position, err))
		return false
	}
	c.done = true
	return false
}

func (c *TrailCursor) apply(items []Item) error {
	for _, item := range items {
		field := item.Field()
		if int(field) >= len(c.resolved) {
			return errors.Wrapf(ErrCorruptTrail, "trail:%d record:%d field %d out of range, %d fields",
				c.trail, c.position, field, len(c.resolved))
		}
		if uint64(item.Value()) > c.lexSizes[field] {
			return errors.Wrapf(ErrCorruptTrail, "trail:%d record:%d value %d out of lexicon of field %d, size %d",
				c.trail, c.position, item.Value(), field, c.lexSizes[field])
		}
		c.resolved[field] = item.Value()
		if c.dirty != nil {
			c.dirty[field] = true
		}
	}
	return nil
}

func (c *TrailCursor) resolvedItems() []Item {
	if c.fullBuf == nil {
		c.fullBuf = make([]Item, len(c.resolved))
	}
	for field, value := range c.resolved {
		c.fullBuf[field] = NewItem(FieldID(field), value)
	}
	return c.fullBuf
}

func (c *TrailCursor) dirtyItems() []Item {
	c.fullBuf = c.fullBuf[:0]
	for field, changed := range c.dirty {
		if !changed {
			continue
		}
		c.fullBuf = append(c.fullBuf, NewItem(FieldID(field), c.resolved[field]))
		c.dirty[field] = false
	}
	return c.fullBuf
}

func (c *TrailCursor) fail(err error) {
	c.err = err
	c.done = true
	LogErr("scan of trail %d aborted: %v", c.trail, err)
}

// Event the current event, its items are valid until the next call of Next
func (c *TrailCursor) Event() Event {
	return c.event
}

// Resolved the resolved value of every field at the current event, read only
func (c *TrailCursor) Resolved() []ValueID {
	return c.resolved
}

// Count number of events admitted so far
func (c *TrailCursor) Count() int {
	return c.count
}

func (c *TrailCursor) Err() error {
	return c.err
}

// ReadAll drain cursor, the returned events own their items
func ReadAll(c *TrailCursor) ([]Event, error) {
	var events []Event
	for c.Next() {
		ev := c.Event()
		items := make([]Item, len(ev.Items))
		copy(items, ev.Items)
		events = append(events, Event{Timestamp: ev.Timestamp, Items: items})
	}
	return events, c.Err()
}
