package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/pthm/nsdux"
	nsduxecho "github.com/pthm/nsdux/adapters/echo"
	"github.com/pthm/nsdux/internal/demo"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "demo":
		if err := runDemo(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("nsdux version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nsdux - namespaced state containers for Go

Usage:
  nsdux <command>

Commands:
  serve     Serve the demo app behind the state inspector
  demo      Run the greeter scenario and print the results
  version   Print version
  help      Show this help

Environment:
  NSDUX_ADDR         Listen address (default :8080)
  NSDUX_KEY          Snapshot key (random when unset)
  NSDUX_LOG_LEVEL    debug, info, warn or error (default info)
  NSDUX_IMPORT_URL   JSON list of todo titles for the todos: import action`)
}

func runServe() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	e, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("nsdux serving", slog.String("addr", cfg.Addr))
	if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// newServer binds the demo app and mounts the inspector on a new Echo
// instance. The root path redirects to the inspector.
func newServer(cfg Config, logger *slog.Logger) (*echo.Echo, error) {
	var opts []demo.Option
	if cfg.ImportURL != "" {
		opts = append(opts, demo.WithImportURL(cfg.ImportURL))
	}
	app := demo.App(opts...)
	store, err := nsdux.Bind(app, nsdux.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	inspectorOpts := []nsduxecho.Option{
		nsduxecho.WithTree(app),
		nsduxecho.WithLogger(logger),
	}
	if cfg.Key != "" {
		inspectorOpts = append(inspectorOpts, nsduxecho.WithKey([]byte(cfg.Key)))
	}
	in := nsduxecho.Mount(e, store, inspectorOpts...)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, in.Path())
	})
	return e, nil
}

// runDemo plays the greeter scenario against a fresh store.
func runDemo(w io.Writer) error {
	greeter := demo.Greeter()
	rec, err := nsdux.NewRecorder(greeter)
	if err != nil {
		return err
	}

	greet := func() error {
		msg, err := greeter.Invoke("greet")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, msg)
		return err
	}

	if err := greet(); err != nil {
		return err
	}
	if _, err := greeter.Invoke("setTarget", "hn"); err != nil {
		return err
	}
	if err := greet(); err != nil {
		return err
	}
	for _, typ := range rec.Types() {
		if _, err := fmt.Fprintf(w, "dispatched %s\n", typ); err != nil {
			return err
		}
	}
	return nil
}
