package nsdux

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Collection is a key/value state container whose writes return new
// values. Collection components read and write state only through it, which
// allows persistent containers with structural sharing.
type Collection interface {
	Get(key string) (any, bool)
	Set(key string, value any) Collection
	Merge(others ...Collection) Collection
}

// Ranger is implemented by Collections that can enumerate their entries.
// Plain and the plain components use it to convert Collections to maps.
type Ranger interface {
	Range(fn func(key string, value any) bool)
}

// NewCollectionAction creates a detached Action whose default reducer writes
// payload fields with Collection.Set.
func NewCollectionAction(opts ...Option) *Action {
	a := &Action{base: newBase("CollectionAction"), model: collectionModel{}}
	return a.Configure(opts...)
}

// NewCollectionNamespace creates a detached Namespace whose state is a
// Collection. empty is the value the default state is assembled from; nil
// selects an empty *Map.
//
// Reduce folds the children over the Collection with Set instead of copying
// it first. NewCollectionNamespace panics like NewNamespace.
func NewCollectionNamespace(empty Collection, opts ...Option) *Namespace {
	if empty == nil {
		empty = NewMap()
	}
	return mustConfigure(newNamespace("CollectionNamespace", collectionModel{zero: empty}), opts)
}

// Map is a persistent Collection backed by an immutable hash array mapped
// trie. Set and Merge share structure with the receiver, which is never
// modified.
type Map struct {
	m *immutable.Map[string, any]
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{m: immutable.NewMap[string, any](nil)}
}

// MapOf returns a Map holding the entries of values.
func MapOf(values map[string]any) *Map {
	b := immutable.NewMapBuilder[string, any](nil)
	for k, v := range values {
		b.Set(k, v)
	}
	return &Map{m: b.Map()}
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	return m.m.Get(key)
}

// Set returns a Map with key set to value.
func (m *Map) Set(key string, value any) Collection {
	return &Map{m: m.m.Set(key, value)}
}

// Delete returns a Map without key.
func (m *Map) Delete(key string) *Map {
	return &Map{m: m.m.Delete(key)}
}

// Merge returns a Map holding the entries of m overwritten by the entries of
// each other Collection in turn. Collections that are not Rangers cannot be
// enumerated and are skipped.
func (m *Map) Merge(others ...Collection) Collection {
	out := m.m
	for _, other := range others {
		r, ok := other.(Ranger)
		if !ok {
			continue
		}
		r.Range(func(k string, v any) bool {
			out = out.Set(k, v)
			return true
		})
	}
	return &Map{m: out}
}

// Range calls fn for every entry until fn returns false. The order is
// unspecified.
func (m *Map) Range(fn func(key string, value any) bool) {
	itr := m.m.Iterator()
	for !itr.Done() {
		k, v, _ := itr.Next()
		if !fn(k, v) {
			return
		}
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return m.m.Len()
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.m.Len())
	m.Range(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	})
	sort.Strings(keys)
	return keys
}

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteString("Map{")
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteString(" ")
		}
		v, _ := m.m.Get(k)
		fmt.Fprintf(&sb, "%s:%v", k, v)
	}
	sb.WriteString("}")
	return sb.String()
}
