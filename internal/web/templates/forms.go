package templates

import (
	"slices"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/a-h/templ"
)

// OtherSuffix names the free-text input paired with a status select.
const OtherSuffix = " (other)"

// FormView is the add/edit form for one record.
type FormView struct {
	Dataset core.Dataset
	Title   string
	Action  string
	Cancel  string
	Values  core.Fields
	Errors  map[string]string
}

// RecordForm renders the dataset's form fields. Select fields whose
// current value is not an offered option show it under "Other" when the
// field accepts custom values, or as an extra option when it does not.
func RecordForm(v FormView) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>")
		h.text(v.Title)
		h.raw("</h1>")
		if len(v.Errors) > 0 {
			h.render(ErrorAlert("Some required fields are missing", "Fill in the highlighted fields and submit again", "REC002"))
		}

		h.raw(`<form method="post"`)
		h.attr("action", v.Action)
		h.raw(">")
		for _, spec := range v.Dataset.FormFields {
			value := v.Values.String(spec.Name)
			h.raw("<p><label>")
			h.text(spec.Label)
			if spec.Required {
				h.raw(" *")
			}
			h.raw("<br>")
			switch {
			case len(spec.Options) > 0:
				selectInput(h, spec, value)
			case spec.Multiline:
				h.raw("<textarea rows=\"3\" cols=\"60\"")
				h.attr("name", spec.Name)
				h.raw(">")
				h.text(value)
				h.raw("</textarea>")
			default:
				h.raw(`<input type="text" size="60"`)
				h.attr("name", spec.Name)
				h.attr("value", value)
				h.raw(">")
			}
			h.raw("</label>")
			if msg, ok := v.Errors[spec.Name]; ok {
				h.raw(`<br><span class="field-error">`)
				h.text(msg)
				h.raw("</span>")
			}
			h.raw("</p>")
		}
		h.raw(`<button type="submit">Save</button> <a`)
		h.href(v.Cancel)
		h.raw(">Cancel</a></form>")
	})
}

func selectInput(h *htmlWriter, spec core.FieldSpec, value string) {
	allowsOther := slices.Contains(spec.Options, core.OtherOption)
	known := value == "" || slices.Contains(spec.Options, value)

	selected := value
	custom := ""
	if !known && allowsOther {
		selected = core.OtherOption
		custom = value
	}

	h.raw("<select")
	h.attr("name", spec.Name)
	h.raw(`><option value="">Select...</option>`)
	options := spec.Options
	if !known && !allowsOther {
		options = append(slices.Clone(options), value)
	}
	for _, opt := range options {
		h.raw("<option")
		h.attr("value", opt)
		if opt == selected {
			h.raw(" selected")
		}
		h.raw(">")
		h.text(opt)
		h.raw("</option>")
	}
	h.raw("</select>")

	if allowsOther {
		h.raw(` <input type="text" placeholder="If Other, specify"`)
		h.attr("name", spec.Name+OtherSuffix)
		h.attr("value", custom)
		h.raw(">")
	}
}

// LoginPage renders the admin sign-in form.
func LoginPage(username, next, errMessage string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<h1>Admin login</h1>")
		if errMessage != "" {
			h.render(ErrorAlert(errMessage, "Check your credentials and try again", "AUTH001"))
		}
		h.raw(`<form method="post" action="/login">`)
		h.raw(`<input type="hidden" name="next"`)
		h.attr("value", next)
		h.raw(`><p><label>Username<br><input type="text" name="username" autocomplete="username"`)
		h.attr("value", username)
		h.raw(`></label></p><p><label>Password<br>`)
		h.raw(`<input type="password" name="password" autocomplete="current-password"></label></p>`)
		h.raw(`<button type="submit">Log in</button></form>`)
	})
}
