package spark

import "github.com/cespare/xxhash/v2"

// ComponentContext is one frame of the component stack. Effects created
// while a frame is open remember it, so nested executions know their
// lexical owner, which equality policy to use, and whether strict-mode
// mutation rules apply.
type ComponentContext struct {
	props        any
	accessors    any
	parent       *ComponentContext
	ownedEffects []*Node
	contextMap   map[uint64]any
	immutable    bool
	strict       bool
	mounted      bool
	beforeUpdate []func()
	afterUpdate  []func()

	lastFlushID uint64
}

// PushComponent opens a component frame. strict selects the modern
// mutation rules; immutable tells the safe equality predicate to trust
// reference identity.
func (rt *Runtime) PushComponent(props any, strict, immutable bool) *ComponentContext {
	ctx := &ComponentContext{
		props:     props,
		parent:    rt.componentCtx,
		strict:    strict,
		immutable: immutable,
	}
	rt.componentCtx = ctx
	return ctx
}

// PopComponent closes the current frame: the component counts as mounted,
// its deferred user effects are scheduled, and the parent frame is
// restored. accessors, if given, is preserved on the frame and returned.
func (rt *Runtime) PopComponent(accessors any) any {
	ctx := rt.componentCtx
	if ctx == nil {
		return accessors
	}
	ctx.mounted = true
	ctx.accessors = accessors
	for _, e := range ctx.ownedEffects {
		rt.schedule(e)
	}
	ctx.ownedEffects = nil
	rt.componentCtx = ctx.parent
	rt.kickoff()
	return accessors
}

// Props returns the props the frame was pushed with.
func (c *ComponentContext) Props() any { return c.props }

// SetContext stores a value under name for this component and its
// descendants. The map copies the parent's lazily on first write.
func (rt *Runtime) SetContext(name string, v any) {
	ctx := rt.componentCtx
	if ctx == nil {
		return
	}
	if ctx.contextMap == nil {
		ctx.contextMap = make(map[uint64]any)
		for p := ctx.parent; p != nil; p = p.parent {
			if p.contextMap != nil {
				for k, pv := range p.contextMap {
					ctx.contextMap[k] = pv
				}
				break
			}
		}
	}
	ctx.contextMap[contextKey(name)] = v
}

// GetContext looks name up through the frame chain.
func (rt *Runtime) GetContext(name string) (any, bool) {
	key := contextKey(name)
	for ctx := rt.componentCtx; ctx != nil; ctx = ctx.parent {
		if ctx.contextMap != nil {
			if v, ok := ctx.contextMap[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func contextKey(name string) uint64 {
	return xxhash.Sum64String(name)
}

// BeforeUpdate registers fn to run before the component's render work
// re-runs in a flush; AfterUpdate registers fn for after the flush's
// effects settle.
func (rt *Runtime) BeforeUpdate(fn func()) {
	if ctx := rt.componentCtx; ctx != nil {
		ctx.beforeUpdate = append(ctx.beforeUpdate, fn)
	}
}

func (rt *Runtime) AfterUpdate(fn func()) {
	if ctx := rt.componentCtx; ctx != nil {
		ctx.afterUpdate = append(ctx.afterUpdate, fn)
	}
}

// noteCtxUpdate fires a mounted component's beforeUpdate hooks once per
// flush and queues its afterUpdate hooks for the end of that flush.
func (rt *Runtime) noteCtxUpdate(ctx *ComponentContext) {
	if ctx.lastFlushID == rt.flushID {
		return
	}
	ctx.lastFlushID = rt.flushID
	for _, fn := range ctx.beforeUpdate {
		fn()
	}
	if len(ctx.afterUpdate) > 0 {
		rt.updatedCtxs = append(rt.updatedCtxs, ctx)
	}
}

func (rt *Runtime) runAfterUpdates() {
	ctxs := rt.updatedCtxs
	rt.updatedCtxs = nil
	for _, ctx := range ctxs {
		for _, fn := range ctx.afterUpdate {
			fn()
		}
	}
}
