package demo

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/pthm/nsdux"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("todo-%d", n)
	}
}

func TestGreeter(t *testing.T) {
	g := Greeter()
	if _, err := nsdux.Bind(g); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	got, err := g.Invoke("greet")
	if err != nil || got != "hello world" {
		t.Fatalf("greet = %v, %v", got, err)
	}

	if _, err := g.Invoke("setTarget", "hn"); err != nil {
		t.Fatalf("setTarget error = %v", err)
	}
	if got, _ := g.Invoke("greet"); got != "hello hn" {
		t.Errorf("greet = %v, want %q", got, "hello hn")
	}

	if _, err := g.Invoke("setGreeting"); err == nil {
		t.Error("setGreeting without an argument should fail")
	}
}

func TestTodos(t *testing.T) {
	todos := Todos(WithIDs(sequentialIDs()))
	rec, err := nsdux.NewRecorder(todos)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	for _, title := range []string{"Buy groceries", "Review PR", "Call dentist"} {
		if _, err := todos.Invoke("add", title); err != nil {
			t.Fatalf("add(%q) error = %v", title, err)
		}
	}
	if _, err := todos.Invoke("toggle", "id", "todo-2"); err != nil {
		t.Fatalf("toggle error = %v", err)
	}
	if _, err := todos.Invoke("remove", "id", "todo-3"); err != nil {
		t.Fatalf("remove error = %v", err)
	}
	if _, err := todos.Invoke("toggle", "id", "missing"); err != nil {
		t.Fatalf("toggle error = %v", err)
	}

	items := rec.StateAt("items")
	want := []Todo{
		{ID: "todo-1", Title: "Buy groceries"},
		{ID: "todo-2", Title: "Review PR", Done: true},
	}
	if got := List(items); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if got := Summarize(items); got != (Stats{Total: 2, Completed: 1, Pending: 1}) {
		t.Errorf("Summarize() = %+v", got)
	}
	wantTypes := []string{"todos: add", "todos: add", "todos: add", "todos: toggle", "todos: remove", "todos: toggle"}
	if got := rec.Types(); !reflect.DeepEqual(got, wantTypes) {
		t.Errorf("Types() = %v", got)
	}
}

func TestTodosAfterRestore(t *testing.T) {
	todos := Todos(WithIDs(sequentialIDs()))
	store, err := nsdux.Bind(todos)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if _, err := todos.Invoke("add", "first"); err != nil {
		t.Fatalf("add error = %v", err)
	}
	enc, err := nsdux.NewEncoder([]byte("demo"))
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	snap, err := store.Snapshot(enc, false)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if err := store.Restore(enc, snap, false); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if _, err := todos.Invoke("toggle", "id", "todo-1"); err != nil {
		t.Fatalf("toggle error = %v", err)
	}

	items := nsdux.Get(store.GetState(), "items")
	if got := List(items); len(got) != 1 || !got[0].Done {
		t.Errorf("List() after restore = %v", got)
	}
}

func TestTodosImport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["alpha","beta"]`))
	}))
	defer srv.Close()

	todos := Todos(WithIDs(sequentialIDs()), WithImportURL(srv.URL))
	store, err := nsdux.Bind(todos)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	ids, err := todos.Invoke("import")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"todo-1", "todo-2"}) {
		t.Errorf("import ids = %v", ids)
	}
	if got := Summarize(nsdux.Get(store.GetState(), "items")); got.Total != 2 {
		t.Errorf("Summarize() = %+v", got)
	}
}

func TestTodosImportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	todos := Todos(WithImportURL(srv.URL))
	if _, err := nsdux.Bind(todos); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if _, err := todos.Invoke("import"); err == nil {
		t.Error("import should fail on a 503")
	}
}

func TestApp(t *testing.T) {
	app := App(WithIDs(sequentialIDs()))
	store, err := nsdux.Bind(app)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if _, err := app.Namespace("greeter").Invoke("setTarget", "app"); err != nil {
		t.Fatalf("setTarget error = %v", err)
	}
	if _, err := app.Namespace("todos").Invoke("add", "ship it"); err != nil {
		t.Fatalf("add error = %v", err)
	}

	state := store.GetState()
	if got := nsdux.Get(nsdux.Get(state, "greeter"), "target"); got != "app" {
		t.Errorf("greeter.target = %v", got)
	}
	items := nsdux.Get(nsdux.Get(state, "todos"), "items")
	if got := List(items); len(got) != 1 || got[0].Title != "ship it" {
		t.Errorf("todos = %v", got)
	}
	reg, err := store.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if got := reg.Sorted(); len(got) != 6 {
		t.Errorf("registered actions = %v", got)
	}
}
