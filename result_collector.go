package trail_filter

import "github.com/RoaringBitmap/roaring/roaring64"

type (
	ResultCollector interface {
		Add(trail TrailID, event Event)
	}

	// TrailCollector Default Collector, keeps the trails having at least one
	// admitted event and the number of admitted events
	TrailCollector struct {
		trailBits *roaring64.Bitmap
		events    uint64
	}
)

func NewTrailCollector() *TrailCollector {
	return &TrailCollector{
		trailBits: roaring64.New(),
	}
}

func (c *TrailCollector) Add(trail TrailID, _ Event) {
	c.trailBits.Add(uint64(trail))
	c.events++
}

func (c *TrailCollector) TrailCount() int {
	return int(c.trailBits.GetCardinality())
}

func (c *TrailCollector) EventCount() uint64 {
	return c.events
}

func (c *TrailCollector) Contains(trail TrailID) bool {
	return c.trailBits.Contains(uint64(trail))
}

// Bitmap the collected trail ids, owned by the collector
func (c *TrailCollector) Bitmap() *roaring64.Bitmap {
	return c.trailBits
}

func (c *TrailCollector) Reset() {
	c.trailBits.Clear()
	c.events = 0
}

func (c *TrailCollector) GetTrailIDs() (ids []TrailID) {
	if c.TrailCount() == 0 {
		return nil
	}
	ids = make([]TrailID, 0, c.TrailCount())
	iter := c.trailBits.Iterator()
	for iter.HasNext() {
		ids = append(ids, TrailID(iter.Next()))
	}
	return ids
}

// CollectAll feed every admitted event of the store into collector
func (s *Session) CollectAll(collector ResultCollector, opts ...IterOption) error {
	sc, err := s.IterateAll(opts...)
	if err != nil {
		return err
	}
	for sc.Next() {
		cursor := sc.Trail()
		for cursor.Next() {
			collector.Add(cursor.Trail(), cursor.Event())
		}
		if err = cursor.Err(); err != nil {
			return err
		}
	}
	return sc.Err()
}

// MatchTrails the trails with at least one admitted event
func (s *Session) MatchTrails(opts ...IterOption) (*TrailCollector, error) {
	collector := NewTrailCollector()
	if err := s.CollectAll(collector, opts...); err != nil {
		return nil, err
	}
	return collector, nil
}
