package trail_filter

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/echoface/trail_filter/util"
)

const (
	MaxNumFields = 0xFF // 8bit field index

	MaxFieldID FieldID = 0xFF
	MaxValueID ValueID = 0xFFFFFFFFFFFFFF // 56bit

	// EmptyValue the value id of a field that is not set (or set to "")
	EmptyValue ValueID = 0
)

type (
	// FieldID index of a field in Store.Fields()
	FieldID uint8

	// ValueID a value identifier inside one field's lexicon, 0 is reserved
	ValueID uint64

	// Item is one field assignment, a field/value pair packed as
	// <field-8bit> | <value-56bit>
	Item uint64

	// TrailID position of a trail in store order
	TrailID uint64

	// Cookie the opaque 16 bytes key owning a trail
	Cookie = uuid.UUID

	// RawRecord a timestamp with the fields that changed since the previous
	// record of the same trail
	RawRecord struct {
		Timestamp uint64
		Items     []Item
	}

	// Event a record yielded to the caller
	Event = RawRecord

	Items []Item
)

func NewItem(field FieldID, value ValueID) Item {
	util.PanicIf(value > MaxValueID, "value id out of range, <%d, %d>", field, value)
	return Item(uint64(field)<<56 | uint64(value))
}

func (item Item) Field() FieldID {
	return FieldID(item >> 56 & 0xFF)
}

func (item Item) Value() ValueID {
	return ValueID(uint64(item) & uint64(MaxValueID))
}

func (item Item) IsEmpty() bool {
	return item.Value() == EmptyValue
}

func (item Item) String() string {
	return fmt.Sprintf("<%d,%d>", item.Field(), item.Value())
}

func (s Items) DocString() []string {
	res := make([]string, 0, len(s))
	for _, item := range s {
		res = append(res, item.String())
	}
	return res
}
