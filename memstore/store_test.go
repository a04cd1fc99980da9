package memstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/smartystreets/goconvey/convey"

	tf "github.com/echoface/trail_filter"
)

func readRecords(t *testing.T, s *Store, trail tf.TrailID) ([]tf.RawRecord, error) {
	cursor, err := s.RawStream(trail)
	if err != nil {
		t.Fatalf("open raw stream: %v", err)
	}
	var records []tf.RawRecord
	for cursor.Next() {
		records = append(records, cursor.Record())
	}
	return records, cursor.Err()
}

func TestConstructor_EdgeEncoding(t *testing.T) {
	convey.Convey("records keep only changed fields", t, func() {
		cons, err := NewConstructor("f1", "f2")
		convey.So(err, convey.ShouldBeNil)

		cookie := uuid.New()
		data := [][]string{{"a", "x0"}, {"a", "x1"}, {"a", "x0"}, {"a", "x0"}, {"a", "x1"}}
		for i, ev := range data {
			convey.So(cons.Add(cookie, uint64(100+i), ev), convey.ShouldBeNil)
		}
		store, err := cons.Finalize()
		convey.So(err, convey.ShouldBeNil)
		convey.So(store.NumTrails(), convey.ShouldEqual, 1)
		convey.So(store.NumEvents(), convey.ShouldEqual, 5)

		records, err := readRecords(t, store, 0)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(records), convey.ShouldEqual, 5)

		a, x0, x1 := tf.ValueID(1), tf.ValueID(1), tf.ValueID(2)
		convey.So(records[0].Items, convey.ShouldResemble, []tf.Item{tf.NewItem(0, a), tf.NewItem(1, x0)})
		convey.So(records[1].Items, convey.ShouldResemble, []tf.Item{tf.NewItem(1, x1)})
		convey.So(records[2].Items, convey.ShouldResemble, []tf.Item{tf.NewItem(1, x0)})
		convey.So(records[3].Items, convey.ShouldBeEmpty)
		convey.So(records[4].Items, convey.ShouldResemble, []tf.Item{tf.NewItem(1, x1)})
		for i, rec := range records {
			convey.So(rec.Timestamp, convey.ShouldEqual, 100+i)
		}
	})

	convey.Convey("events are sorted by timestamp, stable on ties", t, func() {
		cons, _ := NewConstructor("f")
		cookie := uuid.New()
		_ = cons.Add(cookie, 20, []string{"late"})
		_ = cons.Add(cookie, 10, []string{"first"})
		_ = cons.Add(cookie, 10, []string{"second"})
		store, err := cons.Finalize()
		convey.So(err, convey.ShouldBeNil)

		records, err := readRecords(t, store, 0)
		convey.So(err, convey.ShouldBeNil)
		convey.So(len(records), convey.ShouldEqual, 3)

		lex, _ := store.Lexicon(0)
		var texts []string
		for _, rec := range records {
			text, _ := lex.Text(uint64(rec.Items[0].Value()))
			texts = append(texts, text)
		}
		convey.So(texts, convey.ShouldResemble, []string{"first", "second", "late"})
		convey.So(records[0].Timestamp, convey.ShouldEqual, 10)
		convey.So(records[2].Timestamp, convey.ShouldEqual, 20)
	})

	convey.Convey("empty values are never written to the first record", t, func() {
		cons, _ := NewConstructor("a", "b")
		_ = cons.Add(uuid.New(), 1, []string{"", "b1"})
		store, _ := cons.Finalize()
		records, err := readRecords(t, store, 0)
		convey.So(err, convey.ShouldBeNil)
		convey.So(records[0].Items, convey.ShouldResemble, []tf.Item{tf.NewItem(1, 1)})
	})
}

func TestConstructor_Trails(t *testing.T) {
	convey.Convey("trails keep first seen cookie order", t, func() {
		cons, _ := NewConstructor("f")
		c1, c2 := uuid.New(), uuid.New()
		_ = cons.Add(c2, 1, []string{"v"})
		_ = cons.Add(c1, 1, []string{"v"})
		_ = cons.Add(c2, 2, []string{"w"})
		store, err := cons.Finalize()
		convey.So(err, convey.ShouldBeNil)

		convey.So(store.NumTrails(), convey.ShouldEqual, 2)
		cookie, err := store.Cookie(0)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cookie, convey.ShouldResemble, c2)

		id, ok := store.TrailID(c1)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(id, convey.ShouldEqual, 1)

		_, ok = store.TrailID(uuid.New())
		convey.So(ok, convey.ShouldBeFalse)

		_, err = store.Cookie(2)
		convey.So(errors.Is(err, tf.ErrTrailNotFound), convey.ShouldBeTrue)
		_, err = store.RawStream(2)
		convey.So(errors.Is(err, tf.ErrTrailNotFound), convey.ShouldBeTrue)
	})
}

func TestConstructor_Invalid(t *testing.T) {
	convey.Convey("invalid input is rejected", t, func() {
		_, err := NewConstructor("a", "a")
		convey.So(err, convey.ShouldNotBeNil)
		_, err = NewConstructor("a", "")
		convey.So(err, convey.ShouldNotBeNil)

		cons, _ := NewConstructor("a", "b")
		err = cons.Add(uuid.New(), 1, []string{"x"})
		convey.So(errors.Is(err, ErrFieldCount), convey.ShouldBeTrue)

		big := make([]byte, MaxValueSize+1)
		err = cons.Add(uuid.New(), 1, []string{string(big), ""})
		convey.So(errors.Is(err, ErrValueTooBig), convey.ShouldBeTrue)

		err = cons.AddValues(uuid.New(), 1, map[string]string{"z": "1"})
		convey.So(errors.Is(err, tf.ErrFieldNotFound), convey.ShouldBeTrue)

		convey.So(cons.AddValues(uuid.New(), 1, map[string]string{"b": "1"}), convey.ShouldBeNil)
		_, err = cons.Finalize()
		convey.So(err, convey.ShouldBeNil)

		_, err = cons.Finalize()
		convey.So(errors.Is(err, ErrFinalized), convey.ShouldBeTrue)
		err = cons.Add(uuid.New(), 1, []string{"", ""})
		convey.So(errors.Is(err, ErrFinalized), convey.ShouldBeTrue)
	})
}

func TestStore_CorruptBlob(t *testing.T) {
	convey.Convey("malformed records surface as errors", t, func() {
		cons, _ := NewConstructor("f")
		_ = cons.Add(uuid.New(), 1, []string{"a"})
		_ = cons.Add(uuid.New(), 1, []string{"b"})
		store, _ := cons.Finalize()

		// a record header announcing 3 elements
		store.blobs[0] = append(store.blobs[0], 0x93)
		records, err := readRecords(t, store, 0)
		convey.So(len(records), convey.ShouldEqual, 1)
		convey.So(err, convey.ShouldNotBeNil)

		store.blobs[1] = store.blobs[1][:len(store.blobs[1])-1]
		records, err = readRecords(t, store, 1)
		convey.So(records, convey.ShouldBeEmpty)
		convey.So(err, convey.ShouldNotBeNil)
	})
}
