package trail_filter

import (
	"github.com/pkg/errors"
)

type (
	// Session binds a store to the active filter.
	//
	// a cursor captures the filter active when it is created, SetFilter never
	// affects a cursor in flight. SetFilter and iteration on the same session
	// must be serialized by the caller, the session holds no lock
	Session struct {
		store    Store
		compiler *Compiler
		decoder  *TrailDecoder
		filter   *CompiledFilter
	}

	SessionOption func(s *Session) error

	iterContext struct {
		filter *CompiledFilter
		expr   Expression
		// override true when expr replaces the session filter
		override bool
		mode     ScanMode
	}

	IterOption func(ctx *iterContext)

	// StoreCursor walk every trail of the store in store order
	StoreCursor struct {
		session *Session
		ctx     iterContext
		next    TrailID
		total   TrailID

		cookie  Cookie
		trailID TrailID
		trail   *TrailCursor
		err    error
	}
)

// WithInitialFilter compile expr as the filter active from creation
func WithInitialFilter(expr Expression) SessionOption {
	return func(s *Session) error {
		return s.SetFilter(expr)
	}
}

// WithFilter replace the session filter for one iteration
func WithFilter(expr Expression) IterOption {
	return func(ctx *iterContext) {
		ctx.expr = expr
		ctx.override = true
	}
}

// WithResolvedItems yield the resolved value of every field instead of the
// edge-encoded delta
func WithResolvedItems() IterOption {
	return func(ctx *iterContext) {
		ctx.mode = FullyResolved
	}
}

// WithMergedEdges yield at each admitted event the fields changed since the
// previously admitted one, so the filtered trail stays a replayable delta
func WithMergedEdges() IterOption {
	return func(ctx *iterContext) {
		ctx.mode = MergedEdgeEncoded
	}
}

func NewSession(store Store, opts ...SessionOption) (*Session, error) {
	decoder, err := NewTrailDecoder(store)
	if err != nil {
		return nil, err
	}
	s := &Session{
		store:    store,
		compiler: NewCompiler(store),
		decoder:  decoder,
	}
	for _, fn := range opts {
		if err = fn(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) Store() Store {
	return s.store
}

// SetFilter compile expr and make it the active filter; on error the previous
// filter stays active
func (s *Session) SetFilter(expr Expression) error {
	compiled, err := s.compiler.Compile(expr)
	if err != nil {
		return err
	}
	s.filter = compiled
	LogDebug("session filter set to %s", compiled.String())
	LogDebugIf(compiled.Unsatisfiable(), "filter %s can never match", expr)
	return nil
}

// Filter the active filter in expression form
func (s *Session) Filter() Expression {
	return s.compiler.Decompile(s.filter)
}

// CompiledFilter the active compiled filter, nil when nothing is filtered
func (s *Session) CompiledFilter() *CompiledFilter {
	return s.filter
}

func (s *Session) newIterCtx(opts ...IterOption) (iterContext, error) {
	ctx := iterContext{filter: s.filter}
	for _, fn := range opts {
		fn(&ctx)
	}
	if ctx.override {
		compiled, err := s.compiler.Compile(ctx.expr)
		if err != nil {
			return ctx, err
		}
		ctx.filter = compiled
	}
	return ctx, nil
}

// Iterate the admitted events of trail
func (s *Session) Iterate(trail TrailID, opts ...IterOption) (*TrailCursor, error) {
	ctx, err := s.newIterCtx(opts...)
	if err != nil {
		return nil, err
	}
	return s.decoder.Scan(trail, ctx.filter, ctx.mode)
}

// IterateCookie the admitted events of the trail owned by cookie
func (s *Session) IterateCookie(cookie Cookie, opts ...IterOption) (*TrailCursor, error) {
	trail, ok := s.store.TrailID(cookie)
	if !ok {
		return nil, errors.Wrapf(ErrTrailNotFound, "cookie:%s", cookie)
	}
	return s.Iterate(trail, opts...)
}

// TrailID the trail owned by cookie
func (s *Session) TrailID(cookie Cookie) (TrailID, bool) {
	return s.store.TrailID(cookie)
}

// IterateAll walk every trail in store order; a filter override is compiled
// once for the whole walk
func (s *Session) IterateAll(opts ...IterOption) (*StoreCursor, error) {
	ctx, err := s.newIterCtx(opts...)
	if err != nil {
		return nil, err
	}
	return &StoreCursor{
		session: s,
		ctx:     ctx,
		total:   TrailID(s.store.NumTrails()),
	}, nil
}

// Values render the items of event as field name -> value text
func (s *Session) Values(event Event) (map[string]string, error) {
	fields := s.store.Fields()
	values := make(map[string]string, len(event.Items))
	for _, item := range event.Items {
		if int(item.Field()) >= len(fields) {
			return nil, errors.Wrapf(ErrFieldNotFound, "field id %d", item.Field())
		}
		text, err := TextOf(s.store, item.Field(), item.Value())
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptTrail, "field %s: %v", fields[item.Field()], err)
		}
		values[fields[item.Field()]] = text
	}
	return values, nil
}

// Next open the cursor of the next trail
func (sc *StoreCursor) Next() bool {
	if sc.err != nil || sc.next >= sc.total {
		sc.trail = nil
		return false
	}
	trail := sc.next
	sc.next++

	cookie, err := sc.session.store.Cookie(trail)
	if err != nil {
		sc.err = errors.Wrapf(err, "cookie of trail %d", trail)
		return false
	}
	cursor, err := sc.session.decoder.Scan(trail, sc.ctx.filter, sc.ctx.mode)
	if err != nil {
		sc.err = err
		return false
	}
	sc.cookie, sc.trailID, sc.trail = cookie, trail, cursor
	return true
}

// TrailID the trail of the last successful Next, 0 before the first one
func (sc *StoreCursor) TrailID() TrailID {
	return sc.trailID
}

func (sc *StoreCursor) Cookie() Cookie {
	return sc.cookie
}

// Trail the event cursor of the current trail
func (sc *StoreCursor) Trail() *TrailCursor {
	return sc.trail
}

func (sc *StoreCursor) Err() error {
	return sc.err
}
