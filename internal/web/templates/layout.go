package templates

import (
	"strconv"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/a-h/templ"
)

// Nav is the header state shared by every page.
type Nav struct {
	Admin  bool
	Active string // path of the current section
}

type navLink struct {
	path  string
	label string
	admin bool
}

var navLinks = []navLink{
	{"/", "Home", false},
	{"/products", "Product Catalog", false},
	{"/ecommerce", "eCommerce", false},
	{"/admin/product", "Manage Products", true},
	{"/admin/ecommerce", "Manage eCommerce", true},
	{"/admin/log", "Activity Log", true},
}

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;color:#1f2937;background:#f9fafb}
header{background:#111827;color:#fff;padding:.75rem 1.5rem;display:flex;gap:1rem;align-items:center}
header a{color:#d1d5db;text-decoration:none}header a.active{color:#fff;font-weight:600}
header form{margin-left:auto}
main{padding:1.5rem;max-width:1200px;margin:0 auto}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{border:1px solid #e5e7eb;padding:.4rem .6rem;text-align:left;vertical-align:top}
th{background:#f3f4f6}
.status{display:inline-block;width:.6rem;height:.6rem;border-radius:50%;margin-right:.4rem}
.status-red{background:#dc2626}.status-orange{background:#f59e0b}
.status-green{background:#16a34a}.status-grey{background:#9ca3af}
.null{color:#9ca3af;font-style:italic}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.75rem;margin:1rem 0}
.notice{border:1px solid #86efac;background:#f0fdf4;padding:.75rem;margin:1rem 0}
.field-error{color:#b91c1c;font-size:.85rem}
.toolbar{display:flex;gap:.75rem;align-items:center;margin:1rem 0;flex-wrap:wrap}
.cards{display:flex;gap:1rem}.card{background:#fff;border:1px solid #e5e7eb;padding:1rem;min-width:220px}
.sev-high{color:#b91c1c}.sev-medium{color:#b45309}.sev-low{color:#374151}
`

// Layout wraps body in the page chrome.
func Layout(title string, nav Nav, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.raw("<title>")
		h.text(title)
		h.raw(" | Kerv Feed Status</title><style>")
		h.raw(stylesheet)
		h.raw("</style></head><body><header><strong>Kerv Feed Status</strong>")
		for _, l := range navLinks {
			if l.admin && !nav.Admin {
				continue
			}
			h.raw("<a")
			h.href(l.path)
			if l.path == nav.Active {
				h.attr("class", "active")
			}
			h.raw(">")
			h.text(l.label)
			h.raw("</a>")
		}
		if nav.Admin {
			h.raw(`<form method="post" action="/logout"><button type="submit">Log out</button></form>`)
		} else {
			h.raw(`<a href="/login" style="margin-left:auto">Admin login</a>`)
		}
		h.raw("</header><main>")
		h.render(body)
		h.raw("</main></body></html>")
	})
}

// DatasetCard summarises one dataset on the home page.
type DatasetCard struct {
	Key    core.DatasetKey
	Label  string
	Count  int
	Path   string
	Manage string // admin path, empty for visitors
}

// HomePage lists the datasets with their record counts.
func HomePage(cards []DatasetCard, logEntries int) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>Feed Status</h1><div class=\"cards\">")
		for _, c := range cards {
			h.raw("<div class=\"card\"><h2>")
			h.text(c.Label)
			h.raw("</h2><p>")
			h.text(strconv.Itoa(c.Count))
			h.raw(" records</p><a")
			h.href(c.Path)
			h.raw(">View</a>")
			if c.Manage != "" {
				h.raw(" · <a")
				h.href(c.Manage)
				h.raw(">Manage</a>")
			}
			h.raw("</div>")
		}
		h.raw("</div>")
		if logEntries >= 0 {
			h.raw("<p>")
			h.text(strconv.Itoa(logEntries))
			h.raw(` entries in the <a href="/admin/log">activity log</a>.</p>`)
		}
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.raw("<p>")
			h.text(action)
			h.raw("</p>")
		}
		h.raw("<small>Error code: ")
		h.text(code)
		h.raw("</small></div>")
	})
}

// Notice renders a success message.
func Notice(message string) templ.Component {
	return component(func(h *htmlWriter) {
		if message == "" {
			return
		}
		h.raw(`<div class="notice" role="status">`)
		h.text(message)
		h.raw("</div>")
	})
}
