package spark

// Derived creates a memoized node recomputed lazily from whatever its
// producer reads. Created under an active effect it becomes that effect's
// child; otherwise it is unowned and unlinks itself when its last consumer
// goes away.
func (rt *Runtime) Derived(fn DerivedFunc, equals ...EqualsFunc) *Node {
	d := &Node{
		rt:     rt,
		flags:  fDerived | fDirty,
		value:  Uninitialized,
		equals: rt.pickEquals(equals),
		ctx:    rt.componentCtx,
	}
	d.fn = func(Block) (TeardownFunc, error) {
		v, err := fn(d.value)
		if err != nil {
			return nil, err
		}
		d.value = v
		return nil, nil
	}
	if owner := rt.activeEffect(); owner != nil {
		owner.children = append(owner.children, d)
		d.block = owner.block
	} else {
		d.flags |= fUnowned
	}
	return d
}

// Get returns the node's current value, registering it as a dependency of
// the active consumer. Destroyed nodes read as Uninitialized.
func (rt *Runtime) Get(n *Node) any {
	if n.flags.is(fDestroyed) {
		return Uninitialized
	}
	rt.registerRead(n)
	if n.flags.is(fDerived) && (n.status() != 0 || isUninitialized(n.value) || n.flags.is(fUnowned)) {
		if rt.checkDirtiness(n) {
			rt.updateDerived(n)
		} else {
			n.setStatus(0)
			if n.flags.is(fUnowned) {
				n.checked = rt.writeVer
			}
		}
	}
	return n.value
}

// updateDerived re-executes the producer, swaps the dependency list, and
// propagates dirtiness to consumers only when the value actually changed.
func (rt *Runtime) updateDerived(d *Node) {
	if d.flags.is(fDestroyed) {
		return
	}
	old := d.value
	rt.destroyChildren(d)
	rt.beginCapture(d)
	prevCtx := rt.componentCtx
	rt.componentCtx = d.ctx
	_, err := d.fn(d.block)
	rt.componentCtx = prevCtx
	rt.endCapture(d)

	d.setStatus(0)
	d.checked = rt.writeVer
	if err != nil {
		rt.handleError(d, err)
		return
	}
	if isUninitialized(old) || !d.equals(old, d.value) {
		d.version = rt.nextWriteVersion()
		d.checked = d.version
		rt.markConsumersDirty(d)
	}
}

func (rt *Runtime) pickEquals(explicit []EqualsFunc) EqualsFunc {
	if len(explicit) > 0 && explicit[0] != nil {
		return explicit[0]
	}
	if ctx := rt.componentCtx; ctx != nil && !ctx.strict {
		if ctx.immutable {
			return immutableSafeEquals
		}
		return SafeEquals
	}
	return Equals
}
