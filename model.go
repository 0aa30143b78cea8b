package nsdux

import (
	"fmt"
	"maps"
)

// stateModel is how a component reads and writes its state value. Plain
// components use map[string]any; collection components use a Collection.
type stateModel interface {
	// empty returns the value a Namespace starts from without a default.
	empty() any
	// working returns a value the caller may pass to set.
	working(state any) any
	get(state any, key string) (any, bool)
	set(state any, key string, value any) any
	// merge flattens fragment into state.
	merge(state, fragment any) (any, error)
	// assign writes every payload field onto a copy of state.
	assign(state any, payload map[string]any) any
}

type plainModel struct{}

func (plainModel) empty() any {
	return map[string]any{}
}

func (plainModel) working(state any) any {
	switch s := state.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		if s == nil {
			return map[string]any{}
		}
		return maps.Clone(s)
	case Ranger:
		return toMap(s)
	default:
		panic(fmt.Errorf("%w: namespace state is %T, not map[string]any", ErrIncompatibleState, state))
	}
}

func (plainModel) get(state any, key string) (any, bool) {
	return lookup(state, key)
}

func (plainModel) set(state any, key string, value any) any {
	m := state.(map[string]any)
	m[key] = value
	return m
}

func (p plainModel) merge(state, fragment any) (any, error) {
	m := state.(map[string]any)
	switch f := fragment.(type) {
	case nil:
	case map[string]any:
		for k, v := range f {
			m[k] = v
		}
	case Ranger:
		f.Range(func(k string, v any) bool {
			m[k] = v
			return true
		})
	default:
		return nil, fmt.Errorf("%w: cannot flatten %T into a map", ErrIncompatibleState, fragment)
	}
	return m, nil
}

func (p plainModel) assign(state any, payload map[string]any) any {
	var m map[string]any
	if current, ok := state.(map[string]any); ok && current != nil {
		m = maps.Clone(current)
	} else if r, ok := state.(Ranger); ok {
		m = toMap(r)
	} else {
		m = make(map[string]any, len(payload))
	}
	for k, v := range payload {
		m[k] = v
	}
	return m
}

type collectionModel struct {
	zero Collection
}

func (c collectionModel) empty() any {
	if c.zero == nil {
		return NewMap()
	}
	return c.zero
}

func (c collectionModel) working(state any) any {
	switch s := state.(type) {
	case nil:
		return c.empty()
	case Collection:
		return s
	case map[string]any:
		return fromMap(c.empty().(Collection), s)
	default:
		panic(fmt.Errorf("%w: namespace state is %T, not a Collection", ErrIncompatibleState, state))
	}
}

func (collectionModel) get(state any, key string) (any, bool) {
	return lookup(state, key)
}

func (collectionModel) set(state any, key string, value any) any {
	return state.(Collection).Set(key, value)
}

func (collectionModel) merge(state, fragment any) (any, error) {
	col := state.(Collection)
	switch f := fragment.(type) {
	case nil:
		return col, nil
	case Collection:
		return col.Merge(f), nil
	case map[string]any:
		return fromMap(col, f), nil
	default:
		return nil, fmt.Errorf("%w: cannot flatten %T into a Collection", ErrIncompatibleState, fragment)
	}
}

func (c collectionModel) assign(state any, payload map[string]any) any {
	col, ok := state.(Collection)
	if !ok {
		return plainModel{}.assign(state, payload)
	}
	for k, v := range payload {
		col = col.Set(k, v)
	}
	return col
}

// lookup reads key from a map or Collection state.
func lookup(state any, key string) (any, bool) {
	switch s := state.(type) {
	case map[string]any:
		v, ok := s[key]
		return v, ok
	case Collection:
		return s.Get(key)
	default:
		return nil, false
	}
}

// Get returns the value stored under key in a map or Collection state, or
// nil if the key is absent or state holds neither.
func Get(state any, key string) any {
	v, _ := lookup(state, key)
	return v
}

// Plain converts state to plain Go values: Collections that implement Ranger
// become map[string]any, recursively. Other values are returned unchanged
// except that maps and slices are copied while their elements are converted.
func Plain(state any) any {
	switch s := state.(type) {
	case map[string]any:
		out := make(map[string]any, len(s))
		for k, v := range s {
			out[k] = Plain(v)
		}
		return out
	case Ranger:
		out := make(map[string]any)
		s.Range(func(k string, v any) bool {
			out[k] = Plain(v)
			return true
		})
		return out
	case []any:
		out := make([]any, len(s))
		for i, v := range s {
			out[i] = Plain(v)
		}
		return out
	default:
		return state
	}
}

func toMap(r Ranger) map[string]any {
	m := make(map[string]any)
	r.Range(func(k string, v any) bool {
		m[k] = v
		return true
	})
	return m
}

func fromMap(col Collection, m map[string]any) Collection {
	for k, v := range m {
		col = col.Set(k, v)
	}
	return col
}
