package trail_filter

// Admits evaluate filter against the resolved values of one event,
// resolved is indexed by FieldID and holds a value for every field
func Admits(filter *CompiledFilter, resolved []ValueID) bool {
	return filter.Admits(resolved)
}

// Admits AND over clauses, OR over terms of a clause; a nil filter admits all
func (f *CompiledFilter) Admits(resolved []ValueID) bool {
	if f == nil {
		return true
	}
NEXTCLAUSE:
	for _, clause := range f.clauses {
		for _, term := range clause {
			if term.eval(resolved) {
				continue NEXTCLAUSE
			}
		}
		return false
	}
	return true
}
