// Package demo builds the sample component trees served by the nsdux
// command: a greeter and a todo list.
package demo

import (
	"fmt"
	"maps"
	"sort"

	"github.com/google/uuid"

	"github.com/pthm/nsdux"
	"github.com/pthm/nsdux/lib/endpoint"
)

// Greeter returns a Namespace holding a greeting and a target, with
// setTarget, setGreeting and greet Actions.
func Greeter() *nsdux.Namespace {
	ns := nsdux.NewNamespace(
		nsdux.WithName("greeter"),
		nsdux.WithDescription("Greets a target"),
		nsdux.WithDefaultState(map[string]any{"greeting": "hello", "target": "world"}),
	)
	if err := ns.MountAll(
		nsdux.Mount{Location: "setTarget", Component: nsdux.NewAction(nsdux.WithInitiator(setField("target")))},
		nsdux.Mount{Location: "setGreeting", Component: nsdux.NewAction(nsdux.WithInitiator(setField("greeting")))},
		nsdux.Mount{Location: "greet", Component: nsdux.NewAction(nsdux.WithInitiator(greet))},
	); err != nil {
		panic(fmt.Sprintf("demo: %v", err))
	}
	return ns
}

// setField dispatches its single argument under key.
func setField(key string) nsdux.Initiator {
	return func(c *nsdux.Context, args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: expected 1 argument, got %d", c.Action().Name(), len(args))
		}
		return c.Dispatch(nsdux.Msg("", key, args[0]))
	}
}

func greet(c *nsdux.Context, _ ...any) (any, error) {
	state, err := c.State()
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%v %v", nsdux.Get(state, "greeting"), nsdux.Get(state, "target")), nil
}

// Todo is one entry of the todo list.
type Todo struct {
	ID    string
	Title string
	Done  bool
}

// Stats summarizes the todo list.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

// Option configures Todos.
type Option func(*todoOptions)

type todoOptions struct {
	importURL string
	newID     func() string
}

// WithImportURL mounts an import Action fetching a JSON list of titles from
// url.
func WithImportURL(url string) Option {
	return func(o *todoOptions) {
		o.importURL = url
	}
}

// WithIDs replaces the id generator. Defaults to random UUIDs.
func WithIDs(fn func() string) Option {
	return func(o *todoOptions) {
		o.newID = fn
	}
}

// Todos returns a Collection Namespace whose "items" slice maps todo ids to
// todos. Mounted Actions: add(title), toggle(id), remove(id), and import when
// an import URL is configured.
func Todos(opts ...Option) *nsdux.Namespace {
	o := &todoOptions{newID: uuid.NewString}
	for _, opt := range opts {
		opt(o)
	}

	ns := nsdux.NewCollectionNamespace(nil,
		nsdux.WithName("todos"),
		nsdux.WithDescription("In-memory todo list"),
	)
	items := nsdux.Scoped("items")

	add := nsdux.NewCollectionAction(
		nsdux.WithDefaultState(nsdux.NewMap()),
		nsdux.WithInitiator(func(c *nsdux.Context, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("add: expected a title")
			}
			id := o.newID()
			if _, err := c.Dispatch(nsdux.Msg("", "id", id, "title", fmt.Sprint(args[0]))); err != nil {
				return nil, err
			}
			return id, nil
		}),
		nsdux.WithReducer(func(state any, msg nsdux.Message) any {
			id, _ := msg.Get("id").(string)
			title, _ := msg.Get("title").(string)
			return asMap(state).Set(id, map[string]any{"id": id, "title": title, "done": false})
		}),
	)
	toggle := nsdux.NewCollectionAction(nsdux.WithReducer(func(state any, msg nsdux.Message) any {
		m := asMap(state)
		id, _ := msg.Get("id").(string)
		v, ok := m.Get(id)
		if !ok {
			return m
		}
		todo := maps.Clone(v.(map[string]any))
		done, _ := todo["done"].(bool)
		todo["done"] = !done
		return m.Set(id, todo)
	}))
	remove := nsdux.NewCollectionAction(nsdux.WithReducer(func(state any, msg nsdux.Message) any {
		id, _ := msg.Get("id").(string)
		return asMap(state).Delete(id)
	}))

	mounts := []nsdux.Mount{
		{Location: "add", Component: add, State: items},
		{Location: "toggle", Component: toggle, State: items},
		{Location: "remove", Component: remove, State: items},
	}
	if o.importURL != "" {
		mounts = append(mounts, nsdux.Mount{Location: "import", Component: importAction(o.importURL, add)})
	}
	if err := ns.MountAll(mounts...); err != nil {
		panic(fmt.Sprintf("demo: %v", err))
	}
	return ns
}

// importAction fetches a JSON array of titles and invokes add for each.
func importAction(url string, add *nsdux.Action) *nsdux.Action {
	return nsdux.NewCollectionAction(
		nsdux.WithDescription("Imports todo titles from "+url),
		nsdux.WithEndpoint(endpoint.New(url)),
		nsdux.WithInitiator(func(c *nsdux.Context, _ ...any) (any, error) {
			var (
				ids []string
				err error
			)
			c.Endpoint().Execute(c.Context(), nil,
				func(body any) {
					titles, ok := body.([]any)
					if !ok {
						err = fmt.Errorf("import: expected a list, got %T", body)
						return
					}
					for _, title := range titles {
						id, addErr := add.InvokeContext(c.Context(), title)
						if addErr != nil {
							err = addErr
							return
						}
						ids = append(ids, id.(string))
					}
				},
				func(body any, status int) {
					err = fmt.Errorf("import: status %d: %v", status, body)
				},
			)
			return ids, err
		}),
	)
}

// asMap accepts the *nsdux.Map the reducers produce and the plain map a
// restored snapshot holds.
func asMap(state any) *nsdux.Map {
	switch s := state.(type) {
	case *nsdux.Map:
		return s
	case map[string]any:
		return nsdux.MapOf(s)
	default:
		return nsdux.NewMap()
	}
}

// List returns the todos in an items state, ordered by title then id.
func List(items any) []Todo {
	var out []Todo
	plain, _ := nsdux.Plain(items).(map[string]any)
	for id, v := range plain {
		m, _ := v.(map[string]any)
		title, _ := m["title"].(string)
		done, _ := m["done"].(bool)
		out = append(out, Todo{ID: id, Title: title, Done: done})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Summarize counts the todos in an items state.
func Summarize(items any) Stats {
	var s Stats
	for _, t := range List(items) {
		s.Total++
		if t.Done {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s
}

// App mounts the greeter and the todo list under one root.
func App(opts ...Option) *nsdux.Namespace {
	root := nsdux.NewNamespace(nsdux.WithName("app"))
	if err := root.MountAll(
		nsdux.Mount{Location: "greeter", Component: Greeter()},
		nsdux.Mount{Location: "todos", Component: Todos(opts...)},
	); err != nil {
		panic(fmt.Sprintf("demo: %v", err))
	}
	return root
}
