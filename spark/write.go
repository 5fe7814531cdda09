package spark

// Source creates a leaf node holding a user-set value. Without an explicit
// predicate the equality policy follows the creating component: strict
// identity in strict mode, the safe predicate in legacy mode.
func (rt *Runtime) Source(v any, equals ...EqualsFunc) *Node {
	return &Node{
		rt:     rt,
		flags:  fSource,
		value:  v,
		equals: rt.pickEquals(equals),
		ctx:    rt.componentCtx,
	}
}

// Set writes a source. Equal values (per the node's predicate) are
// dropped; otherwise consumers are invalidated and any effect consumers
// scheduled. In strict mode a write during a derivation is an error.
func (rt *Runtime) Set(n *Node, v any) any {
	if n.flags.is(fDestroyed) {
		rt.handleError(n, &DestroyedNodeError{})
		return v
	}
	if rt.aborted && !rt.flushing && len(rt.frames) == 0 {
		// recover from an aborted flush; the next write starts fresh
		rt.aborted = false
		rt.flushDepth = 0
	}
	if !rt.mutationBypass {
		if d := rt.inDerivation(); d != nil && rt.strictFor(d) {
			rt.handleError(d, &MutationDuringDerivationError{})
			return n.value
		}
	}
	if !isUninitialized(n.value) && n.equals(n.value, v) {
		return n.value
	}
	rt.setInternal(n, v)
	rt.kickoff()
	return n.value
}

// SetSync writes and then flushes both queues synchronously before
// returning.
func (rt *Runtime) SetSync(n *Node, v any) any {
	out := rt.Set(n, v)
	rt.FlushNow(nil)
	return out
}

// setInternal performs the accepted write: store, bump version, push
// dirtiness, and close the first-run self-read loop.
func (rt *Runtime) setInternal(n *Node, v any) {
	n.value = v
	n.version = rt.nextWriteVersion()
	rt.markConsumersDirty(n)

	// An effect that writes a source it already read during its first
	// execution has no registered edge yet; dependency registration only
	// lands when the run ends. Schedule it by hand or the loop is lost.
	if f := rt.currentFrame(); f != nil && f.consumer != nil &&
		f.consumer.isEffect() && n.readClock == f.clock {
		f.consumer.setStatus(fDirty)
		rt.schedule(f.consumer)
	}
}

func (rt *Runtime) strictFor(n *Node) bool {
	if n.ctx != nil {
		return n.ctx.strict
	}
	return true
}

// InvalidateInnerSignals is the legacy coarse-propagation helper: every
// source read during fn is re-set to its own value with the equality
// predicate bypassed, forcing propagation for object sources whose
// identity did not change.
func (rt *Runtime) InvalidateInnerSignals(fn func()) {
	reads := rt.CaptureReads(fn)
	for s := range reads.Iter() {
		if s.flags.is(fDestroyed) {
			continue
		}
		rt.setInternal(s, s.value)
	}
	rt.kickoff()
}

// UpdatePre adds delta to a numeric source and returns the new value
// (the ++x form). UpdatePost returns the previous value (the x++ form).
func (rt *Runtime) UpdatePre(n *Node, delta int) any {
	next, err := addAny(n.value, delta)
	if err != nil {
		rt.handleError(n, err)
		return n.value
	}
	return rt.Set(n, next)
}

func (rt *Runtime) UpdatePost(n *Node, delta int) any {
	prev := rt.Get(n)
	next, err := addAny(prev, delta)
	if err != nil {
		rt.handleError(n, err)
		return prev
	}
	rt.Set(n, next)
	return prev
}

// Increment and friends are the numeric helpers compiler output leans on.
func (rt *Runtime) Increment(n *Node) any    { return rt.UpdatePost(n, 1) }
func (rt *Runtime) Decrement(n *Node) any    { return rt.UpdatePost(n, -1) }
func (rt *Runtime) PreIncrement(n *Node) any { return rt.UpdatePre(n, 1) }
func (rt *Runtime) PreDecrement(n *Node) any { return rt.UpdatePre(n, -1) }

func addAny(v any, delta int) (any, error) {
	switch x := v.(type) {
	case int:
		return x + delta, nil
	case int32:
		return x + int32(delta), nil
	case int64:
		return x + int64(delta), nil
	case uint:
		return x + uint(delta), nil
	case uint32:
		return x + uint32(delta), nil
	case uint64:
		return x + uint64(delta), nil
	case float32:
		return x + float32(delta), nil
	case float64:
		return x + float64(delta), nil
	}
	return v, &nonNumericError{v}
}

type nonNumericError struct{ v any }

func (e *nonNumericError) Error() string {
	return "update helper applied to non-numeric value"
}
