package spark

// schedule enqueues an effect for the next flush. The pre-and-render phase
// fully settles before the normal queue moves, and pre effects outrank
// render effects within it; sync effects never queue and run right here.
// Repeat schedules between drains coalesce on the queued bit.
func (rt *Runtime) schedule(e *Node) {
	if e == nil || e.flags.is(fDestroyed|fInert) {
		return
	}
	if e.flags.is(fSyncEffect) {
		rt.runEffectNode(e)
		return
	}
	if e.flags.is(fQueued) {
		return
	}
	e.flags |= fQueued
	switch {
	case e.flags.is(fPreEffect):
		rt.pres = append(rt.pres, e)
	case e.flags.is(fRenderEffect):
		rt.renders = append(rt.renders, e)
	default:
		rt.normal = append(rt.normal, e)
	}
}

func (rt *Runtime) queuesEmpty() bool {
	return rt.preIdx >= len(rt.pres) &&
		rt.renderIdx >= len(rt.renders) &&
		rt.normIdx >= len(rt.normal)
}

// kickoff arranges a flush for anything scheduled since the last one. In
// microtask mode the host runs it before the next turn; in sync mode the
// surrounding FlushNow drains directly.
func (rt *Runtime) kickoff() {
	if rt.flushing || rt.mode == modeSync || rt.microtaskQueued {
		return
	}
	if len(rt.frames) > 0 {
		return // a producer is executing; its runner kicks when it ends
	}
	if rt.queuesEmpty() && len(rt.tickWaiters) == 0 {
		return
	}
	rt.microtaskQueued = true
	rt.host.Microtask(rt.flushMicrotask)
}

func (rt *Runtime) flushMicrotask() {
	rt.microtaskQueued = false
	if rt.flushing {
		return
	}
	rt.flushing = true
	rt.flushID++
	rt.drainQueues()
	rt.finishFlush()
}

// drainQueues runs queued effects in phase order: pre, then render, then
// normal. Effects enqueued during the drain land on the live slices and
// run in the same pass, and a higher phase going non-empty preempts the
// lower ones before their next entry.
func (rt *Runtime) drainQueues() {
	for {
		if rt.preIdx < len(rt.pres) {
			e := rt.pres[rt.preIdx]
			rt.preIdx++
			if e.flags.is(fQueued) {
				rt.runEffectNode(e)
			}
			continue
		}
		if rt.renderIdx < len(rt.renders) {
			e := rt.renders[rt.renderIdx]
			rt.renderIdx++
			if e.flags.is(fQueued) {
				rt.runEffectNode(e)
			}
			continue
		}
		if rt.normIdx < len(rt.normal) {
			e := rt.normal[rt.normIdx]
			rt.normIdx++
			if e.flags.is(fQueued) {
				rt.runEffectNode(e)
			}
			continue
		}
		break
	}
	rt.resetQueues()
}

func (rt *Runtime) resetQueues() {
	rt.pres = rt.pres[:0]
	rt.renders = rt.renders[:0]
	rt.normal = rt.normal[:0]
	rt.preIdx = 0
	rt.renderIdx = 0
	rt.normIdx = 0
}

// flushLocalPreRender drains only the queued pre and render entries
// belonging to ctx, so a component's reactive statements settle once per
// flush.
func (rt *Runtime) flushLocalPreRender(ctx *ComponentContext) {
	for i := rt.preIdx; i < len(rt.pres); i++ {
		e := rt.pres[i]
		if e.ctx == ctx && e.flags.is(fQueued) {
			rt.runEffectNode(e)
		}
	}
	for i := rt.renderIdx; i < len(rt.renders); i++ {
		e := rt.renders[i]
		if e.ctx == ctx && e.flags.is(fQueued) {
			rt.runEffectNode(e)
		}
	}
}

// abortFlush implements the update-depth bound: the current flush stops,
// stale queue entries are dropped, and the next write starts fresh.
func (rt *Runtime) abortFlush() {
	rt.aborted = true
	for _, e := range rt.pres[rt.preIdx:] {
		e.flags &^= fQueued
	}
	for _, e := range rt.renders[rt.renderIdx:] {
		e.flags &^= fQueued
	}
	for _, e := range rt.normal[rt.normIdx:] {
		e.flags &^= fQueued
	}
	rt.resetQueues()
	rt.handleError(nil, &UpdateDepthExceededError{Depth: rt.flushDepth})
}

func (rt *Runtime) finishFlush() {
	rt.runAfterUpdates()
	rt.flushing = false
	rt.flushDepth = 0
	rt.aborted = false
	waiters := rt.tickWaiters
	rt.tickWaiters = nil
	for _, ch := range waiters {
		close(ch)
	}
}

// FlushNow switches the scheduler to synchronous mode, drains the queues
// in phase order, runs fn, repeats until quiescent, then drains any
// pending deferred tasks before restoring the previous mode. It returns
// the first error no handler claimed.
func (rt *Runtime) FlushNow(fn func()) error {
	prevMode := rt.mode
	rt.mode = modeSync
	wasFlushing := rt.flushing
	rt.flushing = true
	if !wasFlushing {
		rt.flushID++
	}
	rt.flushErr = nil

	rt.drainQueues()
	if fn != nil {
		fn()
	}
	for !rt.queuesEmpty() {
		rt.drainQueues()
	}
	if d, ok := rt.host.(DeferredDrainer); ok {
		d.DrainDeferred()
		for !rt.queuesEmpty() {
			rt.drainQueues()
		}
	}

	rt.mode = prevMode
	if !wasFlushing {
		rt.finishFlush()
	} else {
		rt.flushing = wasFlushing
	}
	return rt.flushErr
}

// Tick returns a channel closed when the pending flush (or, if none is
// pending, the next empty one) completes. It is the await-a-tick hook for
// asynchronous callers.
func (rt *Runtime) Tick() <-chan struct{} {
	ch := make(chan struct{})
	rt.tickWaiters = append(rt.tickWaiters, ch)
	if rt.flushing {
		return ch
	}
	if !rt.microtaskQueued {
		rt.microtaskQueued = true
		rt.host.Microtask(rt.flushMicrotask)
	}
	return ch
}
