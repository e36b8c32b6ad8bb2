package templates

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/a-h/templ"
)

// LogView is one page of the activity log.
type LogView struct {
	Entries []core.LogEntry
	Total   int
	Filter  core.AuditLogFilter
	Flash   string
}

// LogPage renders the audit log, most recent first.
func LogPage(v LogView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>Activity Log</h1>")
		h.render(Notice(v.Flash))

		h.raw(`<div class="toolbar"><span>Dataset:</span><a href="/admin/log">All</a>`)
		for _, ds := range core.Datasets() {
			h.raw("<a")
			h.href("/admin/log?dataset=" + string(ds.Key))
			h.raw(">")
			h.text(ds.Label)
			h.raw("</a>")
		}
		h.raw(`<a href="/admin/log/download">Download JSON</a>`)
		h.raw(`<form method="post" action="/admin/log/clear"><button type="submit">Clear log</button></form></div>`)

		h.raw("<p>")
		h.text(strconv.Itoa(v.Total))
		h.raw(" entries</p>")
		if len(v.Entries) == 0 {
			h.raw("<p>No activity recorded.</p>")
			return
		}

		h.raw("<table><thead><tr><th>Time</th><th>Action</th><th>Item</th><th>Details</th><th>Source</th></tr></thead><tbody>")
		for _, e := range v.Entries {
			h.raw("<tr><td>")
			h.text(e.Timestamp)
			h.raw(`</td><td><span class="sev-`)
			h.text(string(e.ActionType.Severity()))
			h.raw(`">`)
			h.text(string(e.ActionType))
			h.raw("</span></td><td>")
			if id := e.Item(); id != "" {
				h.text(id)
			} else {
				h.raw(`<span class="null">bulk</span>`)
			}
			h.raw("</td><td>")
			logDetails(h, e.Details)
			h.raw("</td><td>")
			h.text(strings.TrimSpace(e.IPAddress + " " + e.UserAgent))
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
	})
}

func logDetails(h *htmlWriter, details map[string]any) {
	if msg, ok := details["message"].(string); ok {
		h.text(msg)
		return
	}
	data, err := json.Marshal(details)
	if err != nil {
		return
	}
	h.raw("<code>")
	h.text(string(data))
	h.raw("</code>")
}

// UploadResultPage confirms a completed ingestion.
func UploadResultPage(res *core.IngestResult, back string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>Upload complete</h1>")
		h.render(Notice(res.Message))
		h.raw("<table><tbody>")
		summaryRow(h, "File", res.FileName)
		summaryRow(h, "Rows read", strconv.Itoa(res.TotalRows))
		summaryRow(h, "Rows kept", strconv.Itoa(res.Accepted))
		summaryRow(h, "Rows skipped", strconv.Itoa(res.Skipped))
		summaryRow(h, "Upload ID", res.UploadID)
		h.raw("</tbody></table><p><a")
		h.href(back)
		h.raw(">Back to dataset</a></p>")
	})
}

// PreviewPage shows what an upload would do without applying it.
func PreviewPage(p *core.PreviewResponse, back string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>Upload preview: ")
		h.text(p.FileName)
		h.raw("</h1>")
		if p.WouldFail != nil {
			msg := core.MapError(p.WouldFail)
			h.render(ErrorAlert(msg.Message, msg.Action, msg.Code))
		} else {
			h.render(Notice("This file can be uploaded. It would replace " +
				strconv.Itoa(p.Summary.ReplacedRows) + " existing records."))
		}

		h.raw("<table><tbody>")
		summaryRow(h, "Rows read", strconv.Itoa(p.Summary.TotalRows))
		summaryRow(h, "Rows kept", strconv.Itoa(p.Summary.KeptRows))
		summaryRow(h, "Rows skipped", strconv.Itoa(p.Summary.SkippedRows))
		summaryRow(h, "Malformed rows", strconv.Itoa(p.Summary.ErrorRows))
		summaryRow(h, "Duplicate names", strconv.Itoa(p.Summary.DuplicateInFile))
		summaryRow(h, "Columns", strings.Join(p.Header, ", "))
		if len(p.AddedColumns) > 0 {
			summaryRow(h, "New columns", strings.Join(p.AddedColumns, ", "))
		}
		if len(p.DroppedColumns) > 0 {
			summaryRow(h, "Dropped columns", strings.Join(p.DroppedColumns, ", "))
		}
		h.raw("</tbody></table>")

		if len(p.Errors) > 0 {
			h.raw("<h2>Problems</h2><ul>")
			for _, e := range p.Errors {
				h.raw("<li>")
				h.text(e)
				h.raw("</li>")
			}
			h.raw("</ul>")
		}
		if len(p.SkippedSamples) > 0 {
			h.raw("<h2>Rows that would be skipped</h2><ul>")
			for _, row := range p.SkippedSamples {
				h.raw("<li>Line ")
				h.text(strconv.Itoa(row.LineNumber))
				h.raw("</li>")
			}
			h.raw("</ul>")
		}
		if len(p.DuplicateSamples) > 0 {
			h.raw("<h2>Repeated names</h2><ul>")
			for _, d := range p.DuplicateSamples {
				h.raw("<li>")
				h.text(d.Value)
				h.raw(" (lines ")
				lines := make([]string, len(d.LineNumbers))
				for i, n := range d.LineNumbers {
					lines[i] = strconv.Itoa(n)
				}
				h.text(strings.Join(lines, ", "))
				h.raw(")</li>")
			}
			h.raw("</ul>")
		}
		h.raw("<p><a")
		h.href(back)
		h.raw(">Back to dataset</a></p>")
	})
}

func summaryRow(h *htmlWriter, label, value string) {
	h.raw("<tr><th>")
	h.text(label)
	h.raw("</th><td>")
	h.text(value)
	h.raw("</td></tr>")
}
