package spark

import mapset "github.com/deckarep/golang-set/v2"

// Selector answers "is this the active key?" in O(1) per selection
// change. Each key tracks its own consumer set; switching the active key
// dirties only the consumers of the old and new keys instead of every
// item in a list.
type Selector struct {
	rt        *Runtime
	active    *Node
	consumers map[any]mapset.Set[*Node]
}

// NewSelector creates a selector. Keys must be comparable values.
func (rt *Runtime) NewSelector(initialKey any) *Selector {
	return &Selector{
		rt:        rt,
		active:    rt.Source(initialKey, Equals),
		consumers: make(map[any]mapset.Set[*Node]),
	}
}

// Is reports whether key is the active key, registering the calling
// consumer for that key. The consumer drops out of the set on its own
// teardown, and an emptied set is pruned.
func (s *Selector) Is(key any) bool {
	if c := s.rt.currentConsumer(); c != nil {
		set, ok := s.consumers[key]
		if !ok {
			set = mapset.NewThreadUnsafeSet[*Node]()
			s.consumers[key] = set
		}
		if !set.Contains(c) {
			set.Add(c)
			s.rt.PushTeardown(c, func() error {
				set.Remove(c)
				if set.Cardinality() == 0 {
					delete(s.consumers, key)
				}
				return nil
			})
		}
	}
	return identical(s.active.value, key)
}

// Set switches the active key, marking only the consumers registered for
// the old and new keys.
func (s *Selector) Set(key any) {
	old := s.active.value
	if identical(old, key) {
		return
	}
	s.active.value = key
	s.active.version = s.rt.nextWriteVersion()
	s.markKey(old)
	s.markKey(key)
	s.rt.kickoff()
}

// Key returns the active key without registering a dependency.
func (s *Selector) Key() any {
	return s.active.value
}

func (s *Selector) markKey(key any) {
	set, ok := s.consumers[key]
	if !ok {
		return
	}
	for c := range set.Iter() {
		s.rt.markNode(c, fDirty)
	}
}
