package nsdux

import (
	"fmt"
	"slices"
	"sort"
)

// Mount describes one component registration: where it is mounted and which
// part of the Namespace state it reduces.
type Mount struct {
	Location  string
	Component Component
	// State is the routed state location. The zero value is Unscoped, which
	// Namespaces replace with Scoped(Location).
	State StateLocation
}

// mounted is the bookkeeping kept for each registered component.
type mounted struct {
	location  string
	component Component
	state     StateLocation
}

// Namespace is a container of mounted components.
//
// Its default state is its own configured default merged with the default
// state of every mounted component, rebuilt eagerly on each mount and
// unmount. Its Reduce method threads a Message through every child in
// mount order.
type Namespace struct {
	base
	model   stateModel
	initial any

	order       []*mounted
	byLocation  map[string]*mounted
	byComponent map[Component]*mounted
}

// NewNamespace creates a detached Namespace operating on map[string]any
// state.
//
// NewNamespace panics if a component given through WithComponents cannot be
// mounted. Use Configure to handle the error instead.
func NewNamespace(opts ...Option) *Namespace {
	return mustConfigure(newNamespace("Namespace", plainModel{}), opts)
}

func newNamespace(kind string, model stateModel) *Namespace {
	ns := &Namespace{
		base:        newBase(kind),
		model:       model,
		byLocation:  make(map[string]*mounted),
		byComponent: make(map[Component]*mounted),
	}
	ns.defaultState = model.empty()
	return ns
}

func mustConfigure(ns *Namespace, opts []Option) *Namespace {
	if _, err := ns.Configure(opts...); err != nil {
		panic(fmt.Sprintf("nsdux: failed to configure namespace: %v", err))
	}
	return ns
}

// Configure applies opts and returns the Namespace.
//
// Components passed with WithComponents are mounted after the other options
// are applied. Components already mounted here are skipped and existing
// mounts are kept.
func (ns *Namespace) Configure(opts ...Option) (*Namespace, error) {
	o := collect(opts)
	renamed := o.name != nil
	ns.configure(o)
	if renamed {
		ns.renameChildren()
	}
	if o.hasDefault {
		if err := ns.setInitial(o.defaultState); err != nil {
			return ns, err
		}
	}
	for _, m := range o.components {
		if _, exists := ns.byComponent[m.Component]; exists {
			continue
		}
		if err := ns.MountAt(m.Location, m.Component, m.State); err != nil {
			return ns, err
		}
	}
	return ns, nil
}

func (ns *Namespace) setInitial(state any) error {
	if _, err := ns.model.merge(ns.model.working(nil), state); err != nil {
		return fmt.Errorf("default state of %q: %w", ns.name, err)
	}
	ns.initial = state
	ns.rebuildDefault()
	return nil
}

// Mount registers c at location with the default state location: Unscoped
// for Actions, Scoped(location) for Namespaces.
func (ns *Namespace) Mount(location string, c Component) error {
	return ns.MountAt(location, c, Unscoped())
}

// MountAt registers c at location, routing it the state selected by state.
// Namespaces always own a named slice: an Unscoped state location is
// replaced by Scoped(location).
//
// A component mounted in another Namespace is unmounted from it first.
// MountAt fails if location is taken, if c is already mounted here, if c is
// an ancestor of ns, or if c's default state cannot be merged.
func (ns *Namespace) MountAt(location string, c Component, state StateLocation) error {
	if c == nil {
		return fmt.Errorf("mount %q in %q: nil component", location, ns.name)
	}
	if _, exists := ns.byLocation[location]; exists {
		return fmt.Errorf("%w: %q in %q", ErrDuplicateMount, location, ns.name)
	}
	if _, exists := ns.byComponent[c]; exists {
		return fmt.Errorf("%w: %q in %q", ErrAlreadyMounted, c.Name(), ns.name)
	}
	if child, ok := c.(*Namespace); ok {
		if child == ns || child.isAncestorOf(ns) {
			return fmt.Errorf("%w: %q into %q", ErrMountCycle, child.name, ns.name)
		}
		if !state.IsScoped() {
			state = Scoped(location)
		}
	}

	if _, err := ns.contribute(ns.model.working(ns.defaultState), c.DefaultState(), state); err != nil {
		return fmt.Errorf("mount %q in %q: %w", location, ns.name, err)
	}

	if old := c.Parent(); old != nil {
		old.detach(c)
	}
	m := &mounted{location: location, component: c, state: state}
	ns.order = append(ns.order, m)
	ns.byLocation[location] = m
	ns.byComponent[c] = m
	c.core().attach(ns, location)
	if child, ok := c.(*Namespace); ok {
		child.renameChildren()
	}

	// the old parent may be a descendant whose detach already changed
	// ns.defaultState
	ns.rebuildDefault()
	return nil
}

// MountAll mounts each entry in order and stops at the first error.
func (ns *Namespace) MountAll(mounts ...Mount) error {
	for _, m := range mounts {
		if err := ns.MountAt(m.Location, m.Component, m.State); err != nil {
			return err
		}
	}
	return nil
}

// MountMap mounts every component of components in sorted key order, with
// default state locations.
func (ns *Namespace) MountMap(components map[string]Component) error {
	keys := make([]string, 0, len(components))
	for k := range components {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := ns.Mount(k, components[k]); err != nil {
			return err
		}
	}
	return nil
}

// Unmount removes the component mounted at location. Its parent link is
// cleared and its default state is removed from ns and the ancestors. State
// already held by a store is left as is.
func (ns *Namespace) Unmount(location string) error {
	m, ok := ns.byLocation[location]
	if !ok {
		return fmt.Errorf("%w: %q in %q", ErrNotMounted, location, ns.name)
	}
	ns.detach(m.component)
	return nil
}

func (ns *Namespace) detach(c Component) {
	m, ok := ns.byComponent[c]
	if !ok {
		return
	}
	delete(ns.byComponent, c)
	delete(ns.byLocation, m.location)
	ns.order = slices.DeleteFunc(ns.order, func(x *mounted) bool { return x == m })
	c.core().detach()
	ns.rebuildDefault()
}

// Child returns the component mounted at location, or nil.
func (ns *Namespace) Child(location string) Component {
	if m, ok := ns.byLocation[location]; ok {
		return m.component
	}
	return nil
}

// Action returns the Action mounted at location, or nil.
func (ns *Namespace) Action(location string) *Action {
	a, _ := ns.Child(location).(*Action)
	return a
}

// Namespace returns the Namespace mounted at location, or nil.
func (ns *Namespace) Namespace(location string) *Namespace {
	child, _ := ns.Child(location).(*Namespace)
	return child
}

// Invoke invokes the Action mounted at location.
func (ns *Namespace) Invoke(location string, args ...any) (any, error) {
	c := ns.Child(location)
	if c == nil {
		return nil, fmt.Errorf("%w: %q in %q", ErrNotMounted, location, ns.name)
	}
	a, ok := c.(*Action)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", ErrNotInvokable, location, ns.name)
	}
	return a.Invoke(args...)
}

// Components returns the mounted components in mount order.
func (ns *Namespace) Components() []Mount {
	out := make([]Mount, len(ns.order))
	for i, m := range ns.order {
		out[i] = Mount{Location: m.location, Component: m.component, State: m.state}
	}
	return out
}

// MountLocation returns the location c is mounted at.
func (ns *Namespace) MountLocation(c Component) (string, bool) {
	m, ok := ns.byComponent[c]
	if !ok {
		return "", false
	}
	return m.location, true
}

// StateLocation returns the state location routed to c.
func (ns *Namespace) StateLocation(c Component) (StateLocation, bool) {
	m, ok := ns.byComponent[c]
	if !ok {
		return StateLocation{}, false
	}
	return m.state, true
}

// Walk calls fn for ns and then for every mounted component, depth first in
// mount order. It stops at the first error.
func (ns *Namespace) Walk(fn func(c Component) error) error {
	if err := fn(ns); err != nil {
		return err
	}
	for _, m := range ns.order {
		if child, ok := m.component.(*Namespace); ok {
			if err := child.Walk(fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(m.component); err != nil {
			return err
		}
	}
	return nil
}

// GetState returns the Namespace's slice of the store state. A root
// Namespace reads its store directly and fails with ErrNoStore without one.
func (ns *Namespace) GetState() (any, error) {
	if ns.store != nil {
		return ns.store.GetState(), nil
	}
	if ns.parent == nil {
		return nil, fmt.Errorf("%w for %q", ErrNoStore, ns.name)
	}
	return ns.parent.stateOf(ns)
}

// stateOf computes the slice routed to a mounted component: the whole state
// for Unscoped children, the value under the key for Scoped ones, falling
// back to the default state when the key is absent.
func (ns *Namespace) stateOf(c Component) (any, error) {
	m, ok := ns.byComponent[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %q", ErrNotMounted, c.Name(), ns.name)
	}
	state, err := ns.GetState()
	if err != nil {
		return nil, err
	}
	key, scoped := m.state.Key()
	if !scoped {
		if state == nil {
			return ns.defaultState, nil
		}
		return state, nil
	}
	if v, ok := ns.model.get(state, key); ok {
		return v, nil
	}
	v, _ := ns.model.get(ns.defaultState, key)
	return v, nil
}

// Reduce returns the default state for a nil state. Otherwise it works on a
// copy of state and, for each child in mount order, either replaces the
// child's key with the child's result (Scoped) or replaces the whole working
// state with it (Unscoped). An Unscoped child mounted before a sibling sees
// the sibling's previous state; mounted after, it sees the updated one.
func (ns *Namespace) Reduce(state any, msg Message) any {
	if state == nil {
		return ns.defaultState
	}
	working := ns.model.working(state)
	owned := true
	for _, m := range ns.order {
		key, scoped := m.state.Key()
		if !scoped {
			working = m.component.Reduce(working, msg)
			owned = false
			continue
		}
		current, _ := ns.model.get(working, key)
		next := m.component.Reduce(current, msg)
		if !owned {
			working = ns.model.working(working)
			owned = true
		}
		working = ns.model.set(working, key, next)
	}
	return working
}

// contribute merges a child's default fragment into state at loc.
func (ns *Namespace) contribute(state, fragment any, loc StateLocation) (any, error) {
	if fragment == nil {
		return state, nil
	}
	if key, scoped := loc.Key(); scoped {
		return ns.model.set(state, key, fragment), nil
	}
	return ns.model.merge(state, fragment)
}

// rebuildDefault reassembles the default state from the configured default
// and every mounted child, then updates the ancestors.
func (ns *Namespace) rebuildDefault() {
	def, _ := ns.model.merge(ns.model.working(nil), ns.initial)
	for _, m := range ns.order {
		next, err := ns.contribute(def, m.component.DefaultState(), m.state)
		if err != nil {
			// validated at mount time; a fragment changed by a later
			// Configure is skipped
			continue
		}
		def = next
	}
	ns.defaultState = def
	ns.propagate()
}

// propagate pushes ns's default state into its parent.
func (ns *Namespace) propagate() {
	p := ns.parent
	if p == nil {
		return
	}
	m := p.byComponent[ns]
	key, _ := m.state.Key()
	p.defaultState = p.model.set(p.model.working(p.defaultState), key, ns.defaultState)
	p.propagate()
}

func (ns *Namespace) isAncestorOf(other *Namespace) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == ns {
			return true
		}
	}
	return false
}

// renameChildren refreshes the synthesized names below ns after ns was
// named or mounted.
func (ns *Namespace) renameChildren() {
	for _, m := range ns.order {
		b := m.component.core()
		if !b.named {
			b.name = b.syntheticName()
		}
		if child, ok := m.component.(*Namespace); ok {
			child.renameChildren()
		}
	}
}
