package httpapi

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"recruit-intake/internal/config"
	"recruit-intake/internal/form"
	"recruit-intake/internal/session"
	"recruit-intake/internal/submit"
	"recruit-intake/internal/tagset"
)

//go:embed web/form.html.tmpl web/static
var webFS embed.FS

var formTmpl = template.Must(template.ParseFS(webFS, "web/form.html.tmpl"))

type pageField struct {
	config.Field
	Chips      []tagset.Chip
	Serialized string
}

type pageSection struct {
	Name   string
	Fields []pageField
}

type pageData struct {
	Title    string
	FormID   string
	Sections []pageSection
	View     submit.View
}

// sections groups fields by Section, keeping first-seen order.
func sections(f *form.Form) []pageSection {
	var out []pageSection
	idx := map[string]int{}
	for _, fd := range f.Fields() {
		pf := pageField{Field: fd}
		if ts, err := f.Tags(fd.Name); err == nil {
			pf.Chips = ts.Chips()
			pf.Serialized = ts.Serialize()
		}
		i, ok := idx[fd.Section]
		if !ok {
			i = len(out)
			idx[fd.Section] = i
			out = append(out, pageSection{Name: fd.Section})
		}
		out[i].Fields = append(out[i].Fields, pf)
	}
	return out
}

type PageHandler struct {
	Sessions *session.Store
	Config   func() config.Config
}

func (h PageHandler) Form(w http.ResponseWriter, r *http.Request) {
	id := muxVar(r, "id")
	e, err := h.Sessions.Get(id)
	if err != nil {
		// an expired link starts over with a fresh form
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := pageData{
		Title:    h.Config().Form.Title,
		FormID:   e.Form.ID,
		Sections: sections(e.Form),
		View:     e.Pipeline.View(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := formTmpl.Execute(w, data); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "render_failed", err.Error())
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
