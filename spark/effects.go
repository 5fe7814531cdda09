package spark

// Effect creates a user "after render" effect. It must run during
// component initialization or inside a running effect. Created in a
// component that has not mounted yet, the effect is deferred until the
// component mounts; otherwise it is scheduled into the normal queue at once.
func (rt *Runtime) Effect(fn EffectFunc) *Node {
	ctx := rt.componentCtx
	if ctx == nil && rt.activeEffect() == nil {
		rt.handleError(nil, &EffectOutsideInitError{})
		return nil
	}
	e := rt.newEffectNode(fEffect, liftEffectFunc(fn), nil)
	if ctx != nil && !ctx.mounted {
		ctx.ownedEffects = append(ctx.ownedEffects, e)
		return e
	}
	rt.schedule(e)
	rt.kickoff()
	return e
}

// PreEffect runs before the render effects of the same flush.
func (rt *Runtime) PreEffect(fn EffectFunc) *Node {
	if rt.componentCtx == nil && rt.activeEffect() == nil {
		rt.handleError(nil, &EffectOutsideInitError{})
		return nil
	}
	e := rt.newEffectNode(fPreEffect, liftEffectFunc(fn), nil)
	rt.runEffectNode(e)
	rt.kickoff()
	return e
}

// RenderEffect is where a UI collaborator mounts DOM-building work. It
// executes immediately; block is handed to the producer on every run.
func (rt *Runtime) RenderEffect(fn RenderEffectFunc, block Block) *Node {
	e := rt.newEffectNode(fRenderEffect, fn, block)
	rt.runEffectNode(e)
	rt.kickoff()
	return e
}

// SyncEffect always runs inline with the write that dirtied it; it is
// never queued.
func (rt *Runtime) SyncEffect(fn EffectFunc) *Node {
	e := rt.newEffectNode(fSyncEffect, liftEffectFunc(fn), nil)
	rt.runEffectNode(e)
	rt.kickoff()
	return e
}

// ManagedEffect is an effect the embedder owns: the parent effect will not
// auto-destroy it, and no component context is required.
func (rt *Runtime) ManagedEffect(fn EffectFunc) *Node {
	e := rt.newEffectNode(fEffect|fManaged, liftEffectFunc(fn), nil)
	rt.runEffectNode(e)
	rt.kickoff()
	return e
}

// ManagedRenderEffect is RenderEffect without auto-ownership.
func (rt *Runtime) ManagedRenderEffect(fn RenderEffectFunc, block Block) *Node {
	e := rt.newEffectNode(fRenderEffect|fManaged, fn, block)
	rt.runEffectNode(e)
	rt.kickoff()
	return e
}

// PushTeardown registers an extra closure run before n's next execution
// and on destruction, in registration order.
func (rt *Runtime) PushTeardown(n *Node, fn TeardownFunc) {
	n.teardown = append(n.teardown, fn)
}

func liftEffectFunc(fn EffectFunc) RenderEffectFunc {
	return func(Block) (TeardownFunc, error) {
		return fn()
	}
}

func (rt *Runtime) newEffectNode(flags nodeFlags, fn RenderEffectFunc, block Block) *Node {
	e := &Node{
		rt:    rt,
		flags: flags | fDirty,
		value: Uninitialized,
		fn:    fn,
		block: block,
		ctx:   rt.componentCtx,
	}
	if owner := rt.activeEffect(); owner != nil {
		if e.block == nil {
			e.block = owner.block
		}
		if !e.flags.is(fManaged) {
			owner.children = append(owner.children, e)
		}
	}
	return e
}

// runEffectNode validates, tears down the previous execution, and runs the
// producer. Destroyed and inert entries drop out here, which is also how
// stale queue entries are cancelled.
func (rt *Runtime) runEffectNode(e *Node) {
	if e == nil {
		return
	}
	if e.flags.is(fDestroyed | fInert) {
		e.flags &^= fQueued
		return
	}
	e.flags &^= fQueued
	if rt.aborted {
		return
	}
	if !rt.checkDirtiness(e) {
		e.setStatus(0)
		return
	}
	e.setStatus(0)

	rt.flushDepth++
	if rt.flushDepth > rt.maxFlushDepth {
		rt.abortFlush()
		return
	}

	rt.runTeardown(e)
	rt.destroyChildren(e)

	ctx := e.ctx
	if ctx != nil && ctx.mounted && e.flags.is(fPreEffect|fRenderEffect) {
		rt.noteCtxUpdate(ctx)
	}

	prevCtx := rt.componentCtx
	rt.componentCtx = ctx
	rt.beginCapture(e)
	td, err := e.fn(e.block)
	rt.endCapture(e)
	rt.componentCtx = prevCtx

	if err != nil {
		rt.handleError(e, err)
	} else if td != nil {
		e.teardown = append(e.teardown, td)
	}

	// pre effects drain pending pre/render work of the same component so
	// reactive statements settle once per flush
	if e.flags.is(fPreEffect) && ctx != nil {
		rt.flushLocalPreRender(ctx)
	}

	// outside a flush the counter only bounds recursion depth; inside one
	// it counts drained effects until finishFlush resets it
	if !rt.flushing {
		rt.flushDepth--
	}
}

// runTeardown runs e's teardown closures in registration order,
// best-effort: one failing closure does not stop the rest, and the first
// error is reported afterwards.
func (rt *Runtime) runTeardown(e *Node) {
	if len(e.teardown) == 0 {
		return
	}
	closures := e.teardown
	e.teardown = nil
	var firstErr error
	for _, td := range closures {
		if err := td(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		rt.handleError(e, firstErr)
	}
}
