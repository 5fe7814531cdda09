// Package spark is a fine-grained reactive runtime: a push/pull signal
// graph that captures dependencies at read time, propagates invalidation
// lazily through a clean/maybe-dirty/dirty lattice, and schedules effects
// onto a microtask-driven flush loop.
//
// It is built to sit under a component compiler's emitted code, but knows
// nothing of markup or rendering. Everything is a Node: sources hold
// values, deriveds memoize functions of other nodes, and effects of four
// flavors (pre, render, normal, sync) run side effects in phase order when
// the values they read change. A Runtime owns one graph and must be driven
// from a single goroutine, normally the host loop's.
package spark
