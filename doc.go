// Package nsdux composes a hierarchical, reducer-driven state store out of
// reusable Action and Namespace components.
//
// A single global state value lives in a Store. The Store's reducer is the
// Reduce method of the outermost Namespace, which threads every dispatched
// Message through its mounted components in mount order. Each component sees
// only its own slice of the state, so state locality, message naming, and
// reducer delegation come for free.
//
// # Core Concepts
//
// Actions are callable units. Invoking an Action runs its initiator, which
// reads state and dispatches a Message tagged with the Action's name. The
// Action's reducer runs only for Messages carrying that tag:
//
//	setTarget := nsdux.NewAction(
//	    nsdux.WithInitiator(func(c *nsdux.Context, args ...any) (any, error) {
//	        return c.Dispatch(nsdux.Msg("", "target", args[0]))
//	    }),
//	)
//
// Without a reducer, an Action copies every payload field onto its slice of
// the state, which covers the common "just set some fields" case.
//
// Namespaces are containers. Mounting a component registers it under a
// location and decides which slice of the Namespace state it receives:
//
//	ns := nsdux.NewNamespace(
//	    nsdux.WithName("greeter"),
//	    nsdux.WithDefaultState(map[string]any{"greeting": "hello", "target": "world"}),
//	)
//	ns.Mount("setTarget", setTarget)                           // whole Namespace state
//	ns.MountAt("inc", counter, nsdux.Scoped("counter"))        // only state["counter"]
//
// Nested Namespaces always own a named slice, defaulting to their mount
// location.
//
// # Binding a Store
//
// Bind creates an in-memory store reducing with the root Namespace and makes
// it the dispatch target for the whole tree:
//
//	store, err := nsdux.Bind(ns)
//	ns.Invoke("setTarget", "hn")
//	store.GetState() // map[greeting:hello target:hn]
//
// Any Store implementation can be used instead via WithStore.
//
// # Collections
//
// NewCollectionNamespace and NewCollectionAction run the same algorithm, but
// read and write state through the Collection interface instead of plain
// maps. NewMap provides a persistent Collection with structural sharing.
//
// # Snapshots and Tooling
//
// MemStore.Snapshot and Restore move the state through a signed or
// encrypted msgpack token (see NewEncoder). Restored state holds plain maps,
// slices, strings, bools, float64 and int values. Package lib/endpoint gives
// Actions an HTTP capability, adapters/echo serves a state inspector, and
// Recorder and ReduceAll help test component trees.
//
// # Design Rationale
//
// The package favors explicitness over magic:
//   - Explicit registration (Mount, MountAll, WithComponents)
//   - Explicit context (initiators receive a *Context, no receiver rebinding)
//   - Explicit state routing (Scoped and Unscoped state locations)
//   - Explicit conflicts (duplicate mounts are errors, not silent overwrites)
//
// Reducers must treat the state they receive as read-only and return a new
// value. Namespaces copy their own slice before writing to it.
package nsdux
