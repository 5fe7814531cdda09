package spark

// registerRead records n as a dependency of the active consumer. The
// common case, re-reading the same nodes in the same order as the previous
// execution, only advances a cursor over the old list; divergence starts a
// scratch list that endCapture splices in.
func (rt *Runtime) registerRead(n *Node) {
	rt.lastRead = n
	if rt.captureSet != nil && n.flags.is(fSource) {
		rt.captureSet.Add(n)
	}

	f := rt.currentFrame()
	if f == nil || f.consumer == nil {
		return
	}
	if n == f.consumer {
		return
	}
	if n.readClock == f.clock {
		return // already captured this execution
	}
	n.readClock = f.clock

	c := f.consumer
	if len(f.scratch) == 0 && f.cursor < len(c.deps) && c.deps[f.cursor] == n {
		f.cursor++
		return
	}
	f.scratch = append(f.scratch, n)
}

// beginCapture pushes a capture frame for one producer execution of c.
func (rt *Runtime) beginCapture(c *Node) {
	rt.frames = append(rt.frames, captureFrame{
		consumer: c,
		clock:    rt.nextReadClock(),
		skipSubs: c.flags.is(fUnowned) && len(c.subs) == 0,
	})
}

// endCapture pops the frame and reconciles c's dependency list with what
// the execution actually read: identical prefix kept, stale tail unlinked,
// scratch spliced in at the cursor.
func (rt *Runtime) endCapture(c *Node) {
	f := rt.currentFrame()
	scratch, cursor, skipSubs := f.scratch, f.cursor, f.skipSubs
	rt.frames = rt.frames[:len(rt.frames)-1]

	if len(scratch) == 0 && cursor == len(c.deps) {
		return
	}

	// every tail edge goes; re-read tail nodes come back via scratch
	for _, dep := range c.deps[cursor:] {
		rt.removeConsumer(dep, c)
	}
	c.deps = append(c.deps[:cursor], scratch...)

	if skipSubs {
		return
	}
	for _, dep := range scratch {
		wasOrphan := dep.flags&(fDerived|fUnowned) == fDerived|fUnowned && len(dep.subs) == 0
		dep.subs = append(dep.subs, c)
		if wasOrphan {
			rt.linkUnownedDeps(dep)
		}
	}
}

// linkUnownedDeps reconnects an unowned derived that executed with no
// consumers (its own capture skipped consumer registration) now that it
// has gained one, so push invalidation reaches it again. The inverse of
// the orphan cascade in removeConsumer.
func (rt *Runtime) linkUnownedDeps(d *Node) {
	for _, dep := range d.deps {
		if containsNode(dep.subs, d) {
			continue
		}
		wasOrphan := dep.flags&(fDerived|fUnowned) == fDerived|fUnowned && len(dep.subs) == 0
		dep.subs = append(dep.subs, d)
		if wasOrphan {
			rt.linkUnownedDeps(dep)
		}
	}
}

func containsNode(list []*Node, n *Node) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}
