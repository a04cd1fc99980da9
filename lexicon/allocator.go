package lexicon

type (
	// Allocator assign ids to value text while a store is being constructed,
	// ids start from 1 in first seen order
	Allocator struct {
		strBox map[string]uint64
		values []string
	}
)

func NewAllocator() *Allocator {
	return &Allocator{
		strBox: make(map[string]uint64),
	}
}

func (alloc *Allocator) TotalIDCount() uint64 {
	return uint64(len(alloc.values))
}

func (alloc *Allocator) FindStringID(v string) (value uint64, found bool) {
	if v == "" {
		return EmptyID, true
	}
	value, found = alloc.strBox[v]
	return
}

func (alloc *Allocator) AllocStringID(v string) uint64 {
	if v == "" {
		return EmptyID
	}
	if id, hit := alloc.strBox[v]; hit {
		return id
	}

	alloc.values = append(alloc.values, v)
	id := uint64(len(alloc.values))
	alloc.strBox[v] = id
	return id
}

// Freeze turn the allocated ids into a read-only Lexicon
func (alloc *Allocator) Freeze() *Lexicon {
	lex := &Lexicon{
		values: make([]string, len(alloc.values)),
		ids:    make(map[string]uint64, len(alloc.strBox)),
	}
	copy(lex.values, alloc.values)
	for k, v := range alloc.strBox {
		lex.ids[k] = v
	}
	return lex
}
