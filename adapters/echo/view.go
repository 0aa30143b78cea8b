package nsduxecho

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/pthm/nsdux"
)

// Flash levels for inspector notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-time notification shown after an inspector action.
type Flash struct {
	Level   string
	Message string
}

// renderToasts appends flashes to the page's notification list with an
// out-of-band swap.
func renderToasts(flashes []Flash) string {
	if len(flashes) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(`<div id="nsdux-toasts" hx-swap-oob="beforeend">`)
	for _, f := range flashes {
		fmt.Fprintf(&sb, `<p class="nsdux-flash nsdux-flash-%s" role="status">%s</p>`,
			html.EscapeString(f.Level), html.EscapeString(f.Message))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

func withFlashes(view templ.Component, flashes ...Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := view.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, renderToasts(flashes))
		return err
	})
}

// page wraps view in a standalone document.
func page(prefix string, view templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>nsdux inspector</title>`)
		sb.WriteString(`<script src="https://unpkg.com/htmx.org@2.0.4"></script></head>`)
		sb.WriteString(`<body hx-headers='{"X-Nsdux-Request": "true"}'><h1>nsdux inspector</h1>`)
		sb.WriteString(`<form hx-post="`)
		sb.WriteString(html.EscapeString(prefix))
		sb.WriteString(`dispatch" hx-target="#nsdux-tree" hx-swap="outerHTML">`)
		sb.WriteString(`<input name="type" placeholder="message type"><button>Dispatch</button></form>`)
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		if err := view.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<div id="nsdux-toasts" aria-live="polite"></div></body></html>`)
		return err
	})
}

// treeView renders the component tree below root, if any, and the state.
func treeView(root *nsdux.Namespace, state any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString(`<div id="nsdux-tree">`)
		if root != nil {
			sb.WriteString(`<ul class="components">`)
			writeNode(&sb, root, "", "")
			sb.WriteString(`</ul>`)
		}
		data, err := json.MarshalIndent(nsdux.Plain(state), "", "  ")
		if err != nil {
			return err
		}
		sb.WriteString(`<pre class="state">`)
		sb.WriteString(html.EscapeString(string(data)))
		sb.WriteString(`</pre></div>`)
		_, err = io.WriteString(w, sb.String())
		return err
	})
}

func writeNode(sb *strings.Builder, c nsdux.Component, location, slot string) {
	sb.WriteString(`<li data-kind="`)
	sb.WriteString(html.EscapeString(c.Kind()))
	sb.WriteString(`"><code>`)
	sb.WriteString(html.EscapeString(c.Name()))
	sb.WriteString(`</code> <small>`)
	sb.WriteString(html.EscapeString(c.Kind()))
	if location != "" {
		sb.WriteString(` at `)
		sb.WriteString(html.EscapeString(location))
		sb.WriteString(` → `)
		sb.WriteString(html.EscapeString(slot))
	}
	sb.WriteString(`</small>`)
	if d := c.Description(); d != "" {
		sb.WriteString(` <span class="description">`)
		sb.WriteString(html.EscapeString(d))
		sb.WriteString(`</span>`)
	}
	if ns, ok := c.(*nsdux.Namespace); ok {
		if children := ns.Components(); len(children) > 0 {
			sb.WriteString(`<ul>`)
			for _, m := range children {
				writeNode(sb, m.Component, m.Location, m.State.String())
			}
			sb.WriteString(`</ul>`)
		}
	}
	sb.WriteString(`</li>`)
}
