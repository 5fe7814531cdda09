package spark

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"
)

// Host is the loop contract the scheduler needs: a microtask primitive
// (run before the next turn, after current synchronous code) and a
// deferred-task primitive (run in a future turn). loop.Loop satisfies it.
type Host interface {
	Microtask(fn func())
	Defer(fn func())
}

// DeferredDrainer is implemented by hosts that can drain their deferred
// queue on demand; FlushNow uses it to settle pending timer-style tasks.
type DeferredDrainer interface {
	DrainDeferred()
}

type schedulerMode uint8

const (
	modeMicrotask schedulerMode = iota
	modeSync
)

const defaultMaxFlushDepth = 100

// captureFrame is the per-execution state of dependency capture. One frame
// is pushed for every producer run; a frame with a nil consumer is an
// untracked region.
type captureFrame struct {
	consumer *Node
	cursor   int
	scratch  []*Node
	clock    uint64
	skipSubs bool // unowned derived with no consumers: record deps only
}

// Runtime owns all shared state of one reactivity graph: the consumer
// stack, the effect queues, the scheduler mode, the flush counter and
// the capture set. Everything is single-writer; the runtime must only be
// used from its host loop's goroutine.
type Runtime struct {
	frames    []captureFrame
	readClock uint64
	writeVer  uint64

	pres      []*Node
	renders   []*Node
	normal    []*Node
	preIdx    int
	renderIdx int
	normIdx   int

	mode            schedulerMode
	microtaskQueued bool
	flushing        bool
	flushDepth      int
	maxFlushDepth   int
	flushID         uint64
	flushErr        error
	aborted         bool

	componentCtx *ComponentContext
	updatedCtxs  []*ComponentContext

	captureSet     mapset.Set[*Node]
	lastRead       *Node
	mutationBypass bool

	tickWaiters []chan struct{}

	host    Host
	onError OnErrorFunc
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHost installs the loop that supplies microtask and deferred-task
// scheduling. Without one, writes flush synchronously at their end, which
// keeps single-shot embedders and tests simple.
func WithHost(h Host) Option {
	return func(rt *Runtime) { rt.host = h }
}

// WithMaxFlushDepth overrides the infinite-update bound (default 100).
func WithMaxFlushDepth(n int) Option {
	return func(rt *Runtime) { rt.maxFlushDepth = n }
}

// New creates a runtime. onError receives every error no block boundary
// claimed; pass nil to have FlushNow surface the first one instead.
func New(onError OnErrorFunc, opts ...Option) *Runtime {
	rt := &Runtime{
		onError:       onError,
		maxFlushDepth: defaultMaxFlushDepth,
		host:          &inlineHost{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// inlineHost is the fallback when no loop is installed: microtasks run at
// the kick point, deferred tasks wait for a FlushNow drain.
type inlineHost struct {
	deferred []func()
}

func (h *inlineHost) Microtask(fn func()) { fn() }

func (h *inlineHost) Defer(fn func()) {
	h.deferred = append(h.deferred, fn)
}

func (h *inlineHost) DrainDeferred() {
	for len(h.deferred) > 0 {
		pending := h.deferred
		h.deferred = nil
		for _, fn := range pending {
			fn()
		}
	}
}

func (rt *Runtime) nextReadClock() uint64 {
	if rt.readClock == math.MaxUint64 {
		rt.readClock = 0
	}
	rt.readClock++
	return rt.readClock
}

func (rt *Runtime) nextWriteVersion() uint64 {
	rt.writeVer++
	return rt.writeVer
}

func (rt *Runtime) currentFrame() *captureFrame {
	if len(rt.frames) == 0 {
		return nil
	}
	return &rt.frames[len(rt.frames)-1]
}

// currentConsumer is the active consumer, or nil inside untracked regions
// and outside any producer run.
func (rt *Runtime) currentConsumer() *Node {
	if f := rt.currentFrame(); f != nil {
		return f.consumer
	}
	return nil
}

// activeEffect walks the consumer stack for the innermost running effect.
// Deriveds executing inside an effect still belong to that effect.
func (rt *Runtime) activeEffect() *Node {
	for i := len(rt.frames) - 1; i >= 0; i-- {
		c := rt.frames[i].consumer
		if c != nil && c.isEffect() {
			return c
		}
	}
	return nil
}

// inDerivation reports whether the innermost tracked consumer is a
// derived, for the mutation guard.
func (rt *Runtime) inDerivation() *Node {
	c := rt.currentConsumer()
	if c != nil && c.flags.is(fDerived) {
		return c
	}
	return nil
}

// Untrack runs fn with dependency registration suspended and returns its
// result.
func (rt *Runtime) Untrack(fn func() any) any {
	rt.frames = append(rt.frames, captureFrame{consumer: nil})
	defer func() {
		rt.frames = rt.frames[:len(rt.frames)-1]
	}()
	return fn()
}

// CaptureReads runs fn and returns the set of source nodes it read,
// without disturbing normal dependency registration. Nested captures
// save and restore the outer set.
func (rt *Runtime) CaptureReads(fn func()) mapset.Set[*Node] {
	prev := rt.captureSet
	set := mapset.NewThreadUnsafeSet[*Node]()
	rt.captureSet = set
	defer func() { rt.captureSet = prev }()
	fn()
	return set
}

// Expose runs fn and, when exactly one node's value was the last thing
// read, hands back that node instead of the value, so callers can keep a
// live handle. Everyone else just calls Get and sees plain values.
func (rt *Runtime) Expose(fn func() any) any {
	prev := rt.lastRead
	rt.lastRead = nil
	defer func() { rt.lastRead = prev }()
	v := fn()
	if n := rt.lastRead; n != nil && identical(n.value, v) {
		return n
	}
	return v
}
