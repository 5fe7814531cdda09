package spark

// Block is the opaque pointer a UI collaborator threads through render
// effects. The runtime never looks inside it except to probe for an
// ErrorBoundary.
type Block = any

// ErrorBoundary is implemented by blocks that want producer errors from
// effects they own instead of the runtime-wide error callback.
type ErrorBoundary interface {
	HandleError(err error)
}

// DerivedFunc recomputes a derived value. It receives the previous value,
// or Uninitialized on the first run.
type DerivedFunc func(oldValue any) (any, error)

// EffectFunc is an effect producer. A non-nil teardown is run before the
// next execution and on destruction.
type EffectFunc func() (TeardownFunc, error)

// RenderEffectFunc is an effect producer that receives the owning block.
type RenderEffectFunc func(block Block) (TeardownFunc, error)

// TeardownFunc undoes one effect execution.
type TeardownFunc func() error

type sentinel struct{ name string }

// Uninitialized is the value of a node that has never computed, and of a
// destroyed node. It is distinct from every user value, including nil.
var Uninitialized any = &sentinel{"uninitialized"}

// Node is the unified record behind every reactive entity. Its role is
// carried in the flag bits; sources, deriveds and the four effect flavors
// all share this shape so the central read/schedule/execute paths can
// dispatch on flags alone.
type Node struct {
	rt    *Runtime
	flags nodeFlags

	value  any
	fn     RenderEffectFunc // producer for deriveds and effects
	equals EqualsFunc

	deps []*Node // ordered by first read of the latest execution
	subs []*Node // unordered

	readClock uint64 // stamp of the execution that last read this node
	version   uint64 // bumped on every accepted value change
	checked   uint64 // write version this node last validated against

	block    Block
	ctx      *ComponentContext
	children []*Node
	teardown []TeardownFunc
}

// IsNode reports whether x is a reactive node.
func IsNode(x any) bool {
	_, ok := x.(*Node)
	return ok
}

// Destroyed reports whether the node has been torn down.
func (n *Node) Destroyed() bool {
	return n.flags.is(fDestroyed)
}

// Inert reports whether the node's subtree is paused.
func (n *Node) Inert() bool {
	return n.flags.is(fInert)
}

func (n *Node) isEffect() bool {
	return n.flags.is(fAnyEffect)
}

func isUninitialized(v any) bool {
	return v == Uninitialized
}
