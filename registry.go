package nsdux

import (
	"fmt"
	"sort"
)

// Registry indexes the Actions of a tree by the Message type they reduce.
//
// Bind builds one for its root, so a tree whose Actions share a name is
// rejected when the store is created, not when the ambiguous Message is
// dispatched.
type Registry struct {
	actions map[string]*Action
	types   []string
}

// NewRegistry walks root and indexes every Action it finds. It fails with
// ErrNameCollision if two Actions share a name.
func NewRegistry(root *Namespace) (*Registry, error) {
	reg := &Registry{actions: make(map[string]*Action)}
	err := root.Walk(func(c Component) error {
		a, ok := c.(*Action)
		if !ok {
			return nil
		}
		if prev, exists := reg.actions[a.name]; exists && prev != a {
			return fmt.Errorf("%w: %q", ErrNameCollision, a.name)
		}
		reg.actions[a.name] = a
		reg.types = append(reg.types, a.name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Lookup returns the Action reducing Messages of type typ.
func (reg *Registry) Lookup(typ string) (*Action, bool) {
	a, ok := reg.actions[typ]
	return a, ok
}

// Types returns the indexed Message types in walk order.
func (reg *Registry) Types() []string {
	out := make([]string, len(reg.types))
	copy(out, reg.types)
	return out
}

// Sorted returns the indexed Message types in lexical order.
func (reg *Registry) Sorted() []string {
	out := reg.Types()
	sort.Strings(out)
	return out
}
