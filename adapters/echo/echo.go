// Package nsduxecho mounts a state inspector for an nsdux store on the Echo
// framework.
//
// Mount the inspector onto an Echo instance or group:
//
//	e := echo.New()
//	store, _ := nsdux.Bind(root)
//	nsduxecho.Mount(e, store, nsduxecho.WithTree(root))
//
// Or mount on a group with middleware:
//
//	g := e.Group("/admin", authMiddleware)
//	nsduxecho.MountGroup(g, store, nsduxecho.WithTree(root))
//
// Routes, relative to the path prefix (default "/_nsdux/"):
//
//	GET  state     current state as JSON
//	GET  (prefix)  HTML view of the component tree and state
//	GET  snapshot  signed (or, with ?sensitive=1, encrypted) snapshot
//	POST snapshot  restore a snapshot sent as the request body
//	POST dispatch  dispatch a JSON or msgpack Message
//
// POST routes require the HX-Request or X-Nsdux-Request header.
package nsduxecho

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/nsdux"
	"github.com/pthm/nsdux/lib/encoding"
)

// RequestHeader marks non-htmx POST requests as intentional.
const RequestHeader = "X-Nsdux-Request"

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	key    []byte
	path   string
	root   *nsdux.Namespace
	logger *slog.Logger
}

// WithKey sets the snapshot key.
// The key should be at least 32 bytes of cryptographically random data.
// If not provided, a random key is generated (suitable for development only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithPath sets the URL path prefix for inspector routes.
// Defaults to "/_nsdux/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithTree shows the component tree below root in the HTML view.
func WithTree(root *nsdux.Namespace) Option {
	return func(o *options) {
		o.root = root
	}
}

// WithLogger sets the logger for dispatches and restores made through the
// inspector.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Inspector serves the inspector routes for one store.
type Inspector struct {
	store  *nsdux.MemStore
	enc    *nsdux.Encoder
	root   *nsdux.Namespace
	path   string
	logger *slog.Logger
}

// Mount creates an Inspector and registers its routes on an Echo instance.
//
//	e := echo.New()
//	nsduxecho.Mount(e, store)
//
//	// With options:
//	nsduxecho.Mount(e, store, nsduxecho.WithKey(key), nsduxecho.WithTree(root))
func Mount(e *echo.Echo, store *nsdux.MemStore, opts ...Option) *Inspector {
	in := newInspector(store, opts)
	in.register(e.GET, e.POST)
	return in
}

// MountGroup creates an Inspector and registers its routes on an Echo group.
// This allows the inspector to share middleware with the group (auth,
// logging, etc.).
func MountGroup(g *echo.Group, store *nsdux.MemStore, opts ...Option) *Inspector {
	in := newInspector(store, opts)
	in.register(g.GET, g.POST)
	return in
}

type routeFunc func(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route

func (in *Inspector) register(get, post routeFunc) {
	get(in.path, in.handleView)
	get(in.path+"state", in.handleState)
	get(in.path+"snapshot", in.handleSnapshot)
	post(in.path+"snapshot", in.handleRestore, requireIntent)
	post(in.path+"dispatch", in.handleDispatch, requireIntent)
}

func newInspector(store *nsdux.MemStore, opts []Option) *Inspector {
	o := &options{path: "/_nsdux/"}
	for _, opt := range opts {
		opt(o)
	}
	if !strings.HasSuffix(o.path, "/") {
		o.path += "/"
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	key := o.key
	if key == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("nsduxecho: failed to generate random key: %v", err))
		}
	}
	enc, err := nsdux.NewEncoder(key)
	if err != nil {
		panic(fmt.Sprintf("nsduxecho: failed to create encoder: %v", err))
	}

	return &Inspector{
		store:  store,
		enc:    enc,
		root:   o.root,
		path:   o.path,
		logger: o.logger,
	}
}

// Path returns the route prefix.
func (in *Inspector) Path() string {
	return in.path
}

// requireIntent rejects POST requests that a plain cross-site form could
// send.
func requireIntent(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		if !IsHTMX(r) && r.Header.Get(RequestHeader) != "true" {
			return echo.NewHTTPError(http.StatusForbidden, "missing request header")
		}
		return next(c)
	}
}

func (in *Inspector) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, nsdux.Plain(in.store.GetState()))
}

func (in *Inspector) handleView(c echo.Context) error {
	view := treeView(in.root, in.store.GetState())
	if IsHTMX(c.Request()) {
		return Render(c, view)
	}
	return Render(c, page(in.path, view))
}

func (in *Inspector) handleSnapshot(c echo.Context) error {
	snap, err := in.store.Snapshot(in.enc, sensitive(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.String(http.StatusOK, snap)
}

func (in *Inspector) handleRestore(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := in.store.Restore(in.enc, strings.TrimSpace(string(body)), sensitive(c)); err != nil {
		in.logger.Warn("nsdux restore rejected", slog.String("error", err.Error()))
		if nsdux.IsSnapshotError(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	in.logger.Info("nsdux state restored")
	return in.respond(c, Flash{Level: FlashSuccess, Message: "Snapshot restored"})
}

func (in *Inspector) handleDispatch(c echo.Context) error {
	msg, err := decodeMessage(c.Request())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if msg.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message type is required")
	}
	reg, err := in.store.Registry()
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if reg != nil {
		if _, ok := reg.Lookup(msg.Type); !ok {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no action named %q", msg.Type))
		}
	}

	in.store.Dispatch(msg)
	in.logger.Info("nsdux inspector dispatch", slog.String("type", msg.Type))
	return in.respond(c, Flash{Level: FlashSuccess, Message: "Dispatched " + msg.Type})
}

// respond writes the new state: the tree fragment plus a flash for htmx,
// JSON otherwise.
func (in *Inspector) respond(c echo.Context, flash Flash) error {
	if IsHTMX(c.Request()) {
		return Render(c, withFlashes(treeView(in.root, in.store.GetState()), flash))
	}
	return c.JSON(http.StatusOK, nsdux.Plain(in.store.GetState()))
}

func decodeMessage(r *http.Request) (nsdux.Message, error) {
	var msg nsdux.Message
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/msgpack"):
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return msg, err
		}
		v, err := encoding.Unmarshal(data)
		if err != nil {
			return msg, err
		}
		m, ok := v.(map[string]any)
		if !ok {
			return msg, fmt.Errorf("message must be a map, got %T", v)
		}
		msg.Type, _ = m["type"].(string)
		if p, ok := m["payload"].(map[string]any); ok {
			msg.Payload = p
		}
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return msg, err
		}
		msg.Type = r.PostForm.Get("type")
		for k := range r.PostForm {
			if k == "type" {
				continue
			}
			if msg.Payload == nil {
				msg.Payload = make(map[string]any)
			}
			msg.Payload[k] = r.PostForm.Get(k)
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			return msg, fmt.Errorf("decode message: %w", err)
		}
	}
	return msg, nil
}

func sensitive(c echo.Context) bool {
	v := c.QueryParam("sensitive")
	return v == "1" || v == "true"
}

// IsHTMX returns true if the request originated from htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return nsduxecho.Render(c, myTemplate())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
