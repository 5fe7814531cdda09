package spark

// Destroy tears a node down: children cascade first, then the node
// unlinks from every dependency's consumer list, runs its teardown
// closures in registration order, and goes terminal. Destroyed nodes read
// as Uninitialized and never schedule again.
func (rt *Runtime) Destroy(n *Node) {
	rt.destroyNode(n)
}

func (rt *Runtime) destroyNode(n *Node) {
	if n == nil || n.flags.is(fDestroyed) {
		return
	}
	rt.destroyChildren(n)
	for _, dep := range n.deps {
		rt.removeConsumer(dep, n)
	}
	n.deps = nil
	rt.runTeardown(n)
	n.subs = nil
	n.value = Uninitialized
	n.fn = nil
	n.flags |= fDestroyed
	n.flags &^= fQueued
}

func (rt *Runtime) destroyChildren(n *Node) {
	children := n.children
	n.children = nil
	for _, child := range children {
		rt.destroyNode(child)
	}
}

// removeConsumer drops c from dep's consumer list, swap-and-pop. An
// unowned derived losing its last consumer eagerly unlinks its own
// dependencies, recursively, and will relink on its next read.
func (rt *Runtime) removeConsumer(dep, c *Node) {
	subs := dep.subs
	for i, s := range subs {
		if s == c {
			last := len(subs) - 1
			subs[i] = subs[last]
			dep.subs = subs[:last]
			break
		}
	}
	if len(dep.subs) == 0 && dep.flags&(fDerived|fUnowned|fDestroyed) == fDerived|fUnowned {
		dep.setStatus(fDirty)
		deps := dep.deps
		dep.deps = nil
		for _, dd := range deps {
			rt.removeConsumer(dd, dep)
		}
	}
}

// SetInert pauses or resumes a subtree. A paused effect is skipped by the
// scheduler even if its dependencies dirty it; resuming an effect whose
// status is no longer clean schedules it.
func (rt *Runtime) SetInert(n *Node, inert bool) {
	rt.markInert(n, inert)
	rt.kickoff()
}

func (rt *Runtime) markInert(n *Node, inert bool) {
	if n == nil || n.flags.is(fDestroyed) {
		return
	}
	if inert {
		n.flags |= fInert
	} else {
		n.flags &^= fInert
		if n.isEffect() && n.status() != 0 {
			rt.schedule(n)
		}
	}
	for _, child := range n.children {
		rt.markInert(child, inert)
	}
}
