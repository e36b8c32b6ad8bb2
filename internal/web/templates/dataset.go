package templates

import (
	"net/url"
	"strconv"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/a-h/templ"
)

// Cell is one rendered table value.
type Cell struct {
	Value    string
	Null     bool
	IsStatus bool
	Color    core.StatusColor
}

// Row is one rendered record.
type Row struct {
	ID    string
	Cells []Cell
}

// DatasetView is everything a dataset page needs.
type DatasetView struct {
	Dataset  core.Dataset
	Page     core.Page
	Headings []string
	Rows     []Row
	Admin    bool
	BasePath string
	Flash    string
}

// NewDatasetView turns a query page into table rows. Status columns carry
// their indicator colour; missing and null values render as null.
func NewDatasetView(ds core.Dataset, page core.Page, admin bool, basePath string) DatasetView {
	v := DatasetView{
		Dataset:  ds,
		Page:     page,
		Admin:    admin,
		BasePath: basePath,
		Headings: make([]string, len(page.Columns)),
		Rows:     make([]Row, len(page.Records)),
	}
	for i, col := range page.Columns {
		v.Headings[i] = core.ColumnLabel(col)
	}
	for i, rec := range page.Records {
		row := Row{ID: rec.ID, Cells: make([]Cell, len(page.Columns))}
		for j, col := range page.Columns {
			val, ok := rec.Fields.Get(col)
			cell := Cell{Null: !ok || val == nil, IsStatus: ds.IsStatusColumn(col)}
			if !cell.Null {
				cell.Value = *val
			}
			if cell.IsStatus {
				cell.Color = core.ClassifyStatus(cell.Value)
			}
			row.Cells[j] = cell
		}
		v.Rows[i] = row
	}
	return v
}

// PageURL links to another page of the same listing.
func (v DatasetView) PageURL(page, size int, status core.StatusFilter) string {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if size != core.DefaultPageSize {
		q.Set("pageSize", strconv.Itoa(size))
	}
	if status != "" && status != core.FilterAll {
		q.Set("status", string(status))
	}
	if len(q) == 0 {
		return v.BasePath
	}
	return v.BasePath + "?" + q.Encode()
}

func (v DatasetView) recordPath(id string) string {
	return v.BasePath + "/records/" + url.PathEscape(id)
}

// DatasetPage renders a dataset listing. Admin views add edit, delete,
// upload and export controls.
func DatasetPage(v DatasetView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>")
		h.text(v.Dataset.Label)
		h.raw("</h1>")
		h.render(Notice(v.Flash))

		if v.Admin {
			datasetToolbar(h, v)
		}
		if v.Dataset.StatusFilterField != "" {
			statusFilters(h, v)
		}

		h.raw("<p>")
		h.text(strconv.Itoa(v.Page.Total))
		h.raw(" records</p>")

		if len(v.Rows) == 0 {
			h.raw("<p>No records.</p>")
		} else {
			recordTable(h, v)
		}
		pager(h, v)
	})
}

func datasetToolbar(h *htmlWriter, v DatasetView) {
	h.raw(`<div class="toolbar"><a`)
	h.href(v.BasePath + "/new")
	h.raw(">Add record</a><a")
	h.href("/api/" + string(v.Dataset.Key) + "/export")
	h.raw(">Export CSV</a>")

	h.raw(`<form method="post" enctype="multipart/form-data"`)
	h.attr("action", v.BasePath+"/upload")
	h.raw(`><input type="file" name="file" accept=".csv,text/csv" required>`)
	h.raw(`<button type="submit">Upload CSV</button>`)
	h.raw(`<button type="submit"`)
	h.attr("formaction", v.BasePath+"/preview")
	h.raw(`>Preview</button></form></div>`)
}

func statusFilters(h *htmlWriter, v DatasetView) {
	h.raw(`<div class="toolbar">Show:`)
	for _, f := range core.StatusFilters {
		h.raw("<a")
		h.href(v.PageURL(1, v.Page.PageSize, f))
		if f == v.Page.Status || (v.Page.Status == "" && f == core.FilterAll) {
			h.attr("class", "active")
			h.raw("><strong>")
			h.text(f.Label())
			h.raw("</strong></a>")
			continue
		}
		h.raw(">")
		h.text(f.Label())
		h.raw("</a>")
	}
	h.raw("</div>")
}

func recordTable(h *htmlWriter, v DatasetView) {
	h.raw("<table><thead><tr>")
	for _, heading := range v.Headings {
		h.raw("<th>")
		h.text(heading)
		h.raw("</th>")
	}
	if v.Admin {
		h.raw("<th>Actions</th>")
	}
	h.raw("</tr></thead><tbody>")
	for _, row := range v.Rows {
		h.raw("<tr")
		h.attr("id", "record-"+row.ID)
		h.raw(">")
		for _, c := range row.Cells {
			h.raw("<td>")
			switch {
			case c.Null:
				h.raw(`<span class="null">null</span>`)
			case c.IsStatus:
				h.raw(`<span class="status status-`)
				h.text(string(c.Color))
				h.raw(`"></span>`)
				h.text(c.Value)
			default:
				h.text(c.Value)
			}
			h.raw("</td>")
		}
		if v.Admin {
			h.raw("<td><a")
			h.href(v.recordPath(row.ID) + "/edit")
			h.raw(`>Edit</a> <form method="post" style="display:inline"`)
			h.attr("action", v.recordPath(row.ID)+"/delete")
			h.raw(`><button type="submit">Delete</button></form></td>`)
		}
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}

func pager(h *htmlWriter, v DatasetView) {
	p := v.Page
	h.raw(`<div class="toolbar">`)
	if p.HasPrev() {
		h.raw("<a")
		h.href(v.PageURL(p.Page-1, p.PageSize, p.Status))
		h.raw(">&laquo; Previous</a>")
	}
	h.raw("<span>Page ")
	h.text(strconv.Itoa(p.Page))
	h.raw(" of ")
	h.text(strconv.Itoa(p.TotalPages))
	h.raw("</span>")
	if p.HasNext() {
		h.raw("<a")
		h.href(v.PageURL(p.Page+1, p.PageSize, p.Status))
		h.raw(">Next &raquo;</a>")
	}
	h.raw("<span>Per page:</span>")
	for _, size := range core.PageSizes {
		if size == p.PageSize {
			h.raw("<strong>")
			h.text(strconv.Itoa(size))
			h.raw("</strong>")
			continue
		}
		h.raw("<a")
		h.href(v.PageURL(1, size, p.Status))
		h.raw(">")
		h.text(strconv.Itoa(size))
		h.raw("</a>")
	}
	h.raw("</div>")
}
