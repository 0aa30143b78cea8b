package nsdux

import "fmt"

// Component is implemented by *Action and *Namespace.
//
// A Component is created detached. Mounting it in a Namespace assigns its
// parent, finalizes its name, and merges its default state into the
// ancestors. Unmounting reverses all three.
type Component interface {
	// Name is unique within a store. For Actions it is the Message type.
	Name() string
	Kind() string
	Description() string
	// Parent returns the Namespace the component is mounted in, or nil.
	Parent() *Namespace
	// DefaultState is the state fragment the component contributes when no
	// state exists yet.
	DefaultState() any
	// GetState returns the component's slice of the store state.
	GetState() (any, error)
	// Reduce computes the next slice from the current one.
	Reduce(state any, msg Message) any

	core() *base
}

// Reducer computes a new state slice from the current one and a Message.
// Reducers must not modify the state they receive.
type Reducer func(state any, msg Message) any

// base holds what every component shares: identity, the parent link, the
// default state, and an optional store override.
type base struct {
	kind         string
	name         string
	named        bool
	description  string
	parent       *Namespace
	location     string
	store        Store
	defaultState any
}

func newBase(kind string) base {
	return base{kind: kind, name: kind}
}

func (b *base) core() *base {
	return b
}

// Name returns the component's name.
func (b *base) Name() string {
	return b.name
}

// Kind names the component's constructor: "Action", "Namespace",
// "CollectionAction" or "CollectionNamespace".
func (b *base) Kind() string {
	return b.kind
}

// Description returns the human readable description, if any.
func (b *base) Description() string {
	return b.description
}

// Parent returns the mounting Namespace, or nil for a detached component.
func (b *base) Parent() *Namespace {
	return b.parent
}

// DefaultState returns the component's default state fragment.
func (b *base) DefaultState() any {
	return b.defaultState
}

// configure applies the base options. Fields without an option are left
// untouched.
func (b *base) configure(o *options) {
	if o.name != nil {
		b.name = *o.name
		b.named = *o.name != ""
		if !b.named {
			b.name = b.syntheticName()
		}
	}
	if o.description != nil {
		b.description = *o.description
	}
	if o.store != nil {
		b.store = o.store
	}
	if b.name == "" {
		b.name = b.kind
	}
}

// syntheticName is the name used when none was given explicitly.
func (b *base) syntheticName() string {
	if b.parent == nil {
		return b.kind
	}
	return b.parent.name + ": " + b.location
}

// resolveStore walks up the parent chain until a store is found.
func (b *base) resolveStore() (Store, error) {
	for c := b; c != nil; {
		if c.store != nil {
			return c.store, nil
		}
		if c.parent == nil {
			break
		}
		c = &c.parent.base
	}
	return nil, fmt.Errorf("%w for %q", ErrNoStore, b.name)
}

// attach records the parent link and finalizes an unset name.
func (b *base) attach(parent *Namespace, location string) {
	b.parent = parent
	b.location = location
	if !b.named {
		b.name = b.syntheticName()
	}
}

func (b *base) detach() {
	b.parent = nil
	b.location = ""
	if !b.named {
		b.name = b.kind
	}
}

// Option configures an Action or a Namespace. Options that do not apply to
// the configured kind are ignored.
type Option func(*options)

type options struct {
	name         *string
	description  *string
	store        Store
	defaultState any
	hasDefault   bool
	initiator    Initiator
	reducers     []Reducer
	hasReducers  bool
	endpoint     Requester
	components   []Mount
}

func collect(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithName sets an explicit name. Without one, a mounted component is named
// "<parent name>: <mount location>".
func WithName(name string) Option {
	return func(o *options) {
		o.name = &name
	}
}

// WithDescription attaches a human readable description.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = &description
	}
}

// WithStore makes the component dispatch to and read from s directly
// instead of inheriting the store of its ancestors. Root Namespaces need a
// store before their actions can dispatch.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithDefaultState sets the component's default state fragment.
func WithDefaultState(state any) Option {
	return func(o *options) {
		o.defaultState = state
		o.hasDefault = true
	}
}

// WithInitiator sets the function run when an Action is invoked.
func WithInitiator(fn Initiator) Option {
	return func(o *options) {
		o.initiator = fn
	}
}

// WithReducer sets an Action's reducers. Several reducers run left to right,
// each receiving the result of the previous one.
func WithReducer(reducers ...Reducer) Option {
	return func(o *options) {
		o.reducers = reducers
		o.hasReducers = true
	}
}

// WithEndpoint attaches a network capability to an Action. Initiators reach
// it through Context.Endpoint.
func WithEndpoint(r Requester) Option {
	return func(o *options) {
		o.endpoint = r
	}
}

// WithComponents mounts components in a Namespace during configuration.
// Components already mounted in the Namespace are skipped.
func WithComponents(mounts ...Mount) Option {
	return func(o *options) {
		o.components = append(o.components, mounts...)
	}
}
