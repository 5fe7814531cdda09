package spark

// markConsumersDirty is the push half of invalidation: direct consumers of
// a changed node become dirty, effects among them get scheduled, and
// everything further downstream is only marked maybe-dirty so the pull
// half can validate lazily.
func (rt *Runtime) markConsumersDirty(n *Node) {
	for _, c := range n.subs {
		rt.markNode(c, fDirty)
	}
}

func (rt *Runtime) markNode(c *Node, status nodeFlags) {
	if c.flags.is(fDestroyed) {
		return
	}
	if status == fMaybeDirty && c.status() != 0 {
		return // stop at already-marked nodes
	}
	c.setStatus(status)
	if c.isEffect() {
		rt.schedule(c)
		return
	}
	for _, cc := range c.subs {
		rt.markNode(cc, fMaybeDirty)
	}
}

// checkDirtiness is the pull half: it decides whether n really needs to
// re-execute, resolving maybe-dirty chains depth-first. Recomputing a
// dependency may cascade a real dirty bit back onto n, which ends the walk
// immediately.
func (rt *Runtime) checkDirtiness(n *Node) bool {
	f := n.flags
	if f.is(fDirty) {
		return true
	}
	if f.is(fDerived) && isUninitialized(n.value) {
		return true
	}
	unowned := f&(fDerived|fUnowned) == fDerived|fUnowned

	if !f.is(fMaybeDirty) && !unowned {
		return false
	}

	for _, dep := range n.deps {
		depUnowned := dep.flags&(fDerived|fUnowned) == fDerived|fUnowned
		if dep.flags.is(fMaybeDirty) || depUnowned {
			if rt.checkDirtiness(dep) {
				rt.updateDerived(dep)
				if n.flags.is(fDirty) {
					return true
				}
			} else {
				dep.setStatus(0)
			}
		} else if dep.flags.is(fDirty) {
			if dep.flags.is(fDerived) {
				rt.updateDerived(dep)
				if n.flags.is(fDirty) {
					return true
				}
			} else {
				return true
			}
		}
		if unowned && dep.version > n.checked {
			return true
		}
	}
	return false
}
