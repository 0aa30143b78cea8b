package nsdux

import (
	"context"
	"fmt"
)

// Initiator is the entry point of an Action. It receives an explicit
// Context and the caller's arguments; its return value is handed back to
// the caller of Invoke.
type Initiator func(c *Context, args ...any) (any, error)

// Requester is a network capability an Action can carry. The endpoint
// package provides the HTTP implementation.
//
// Execute performs one request and calls exactly one of onSuccess or
// onError with the parsed response body.
type Requester interface {
	Execute(ctx context.Context, params map[string]any, onSuccess func(body any), onError func(body any, status int))
}

// Action is a callable unit mounted in a Namespace.
//
// Invoking an Action runs its initiator. The initiator typically dispatches
// a Message; the Action's reducer runs when a Message with Type equal to the
// Action's name reaches it.
//
//	counter := nsdux.NewAction(
//	    nsdux.WithDefaultState(0),
//	    nsdux.WithReducer(func(state any, msg nsdux.Message) any {
//	        return state.(int) + msg.Get("by").(int)
//	    }),
//	)
//	ns.MountAt("inc", counter, nsdux.Scoped("counter"))
//	ns.Invoke("inc", "by", 5)
type Action struct {
	base
	model     stateModel
	initiator Initiator
	reducers  []Reducer
	endpoint  Requester
}

// NewAction creates a detached Action operating on map[string]any state.
func NewAction(opts ...Option) *Action {
	a := &Action{base: newBase("Action"), model: plainModel{}}
	return a.Configure(opts...)
}

// Configure applies opts and returns the Action.
func (a *Action) Configure(opts ...Option) *Action {
	o := collect(opts)
	a.configure(o)
	if o.initiator != nil {
		a.initiator = o.initiator
	}
	if o.hasReducers {
		a.reducers = o.reducers
	}
	if o.endpoint != nil {
		a.endpoint = o.endpoint
	}
	if o.hasDefault {
		a.defaultState = o.defaultState
		if a.parent != nil {
			a.parent.rebuildDefault()
		}
	}
	return a
}

// Endpoint returns the attached network capability, or nil.
func (a *Action) Endpoint() Requester {
	return a.endpoint
}

// Invoke runs the initiator with a background context.
func (a *Action) Invoke(args ...any) (any, error) {
	return a.InvokeContext(context.Background(), args...)
}

// InvokeContext runs the initiator. Without an initiator, the arguments are
// dispatched as the Message payload: either a single map[string]any or
// alternating key/value pairs. The result is then the parent Namespace.
func (a *Action) InvokeContext(ctx context.Context, args ...any) (any, error) {
	c := &Context{ctx: ctx, action: a}
	if a.initiator != nil {
		return a.initiator(c, args...)
	}
	msg, err := payloadMessage(args)
	if err != nil {
		return nil, fmt.Errorf("invoke %q: %w", a.name, err)
	}
	ns, err := a.Dispatch(msg)
	if err != nil {
		return nil, err
	}
	return ns, nil
}

// Dispatch stamps msg with the Action's name when msg.Type is empty and
// sends it to the resolved store. It returns the parent Namespace so calls
// can be chained.
//
// A missing store is reported here, not at mount time.
func (a *Action) Dispatch(msg Message) (*Namespace, error) {
	if msg.Type == "" {
		msg.Type = a.name
	}
	store, err := a.resolveStore()
	if err != nil {
		return nil, err
	}
	store.Dispatch(msg)
	return a.parent, nil
}

// GetState returns the Action's slice of the parent state, or nil for a
// detached Action.
func (a *Action) GetState() (any, error) {
	if a.store != nil {
		return a.store.GetState(), nil
	}
	if a.parent == nil {
		return nil, nil
	}
	return a.parent.stateOf(a)
}

// Reduce returns the default state for a nil state, returns state unchanged
// when msg is addressed to another Action, and otherwise applies the
// reducers in order.
func (a *Action) Reduce(state any, msg Message) any {
	if state == nil {
		return a.defaultState
	}
	if msg.Type != a.name {
		return state
	}
	if len(a.reducers) == 0 {
		return a.model.assign(state, msg.Payload)
	}
	for _, r := range a.reducers {
		state = r(state, msg)
	}
	return state
}

func payloadMessage(args []any) (Message, error) {
	if len(args) == 0 {
		return Message{}, nil
	}
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			return Message{Payload: m}, nil
		}
	}
	if len(args)%2 != 0 {
		return Message{}, fmt.Errorf("expected key/value pairs or a map, got %d arguments", len(args))
	}
	payload := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return Message{}, fmt.Errorf("argument %d is %T, not a string key", i, args[i])
		}
		payload[key] = args[i+1]
	}
	return Message{Payload: payload}, nil
}

// Context is passed to initiators. It exposes the Action being invoked and
// the state and dispatch capability of the Namespace it is mounted in.
type Context struct {
	ctx    context.Context
	action *Action
}

// Context returns the context.Context the Action was invoked with.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Action returns the invoked Action.
func (c *Context) Action() *Action {
	return c.action
}

// Namespace returns the Namespace the Action is mounted in, or nil.
func (c *Context) Namespace() *Namespace {
	return c.action.parent
}

// State returns the state of the mounting Namespace. For a detached Action
// it returns the Action's own state.
func (c *Context) State() (any, error) {
	if ns := c.action.parent; ns != nil {
		return ns.GetState()
	}
	return c.action.GetState()
}

// Get reads one key from the mounting Namespace's state.
func (c *Context) Get(key string) (any, error) {
	state, err := c.State()
	if err != nil {
		return nil, err
	}
	return Get(state, key), nil
}

// ActionState returns the Action's own slice of the state.
func (c *Context) ActionState() (any, error) {
	return c.action.GetState()
}

// Dispatch sends msg on behalf of the Action. See Action.Dispatch.
func (c *Context) Dispatch(msg Message) (*Namespace, error) {
	return c.action.Dispatch(msg)
}

// Endpoint returns the Action's network capability, or nil.
func (c *Context) Endpoint() Requester {
	return c.action.endpoint
}
