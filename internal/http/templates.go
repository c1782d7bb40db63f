package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/services"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":         formatMoney,
		"signed":        formatSigned,
		"day":           formatDay,
		"month":         formatMonth,
		"iconLabel":     iconLabel,
		"windowLabel":   windowLabel,
		"typeLabel":     typeLabel,
		"categoryLabel": categoryLabel,
		"share":         core.Share,
		"isoDate":       func(t time.Time) string { return core.DateOf(t).String() },
	}
}

// pageTemplates are the entry points the handlers render.
var pageTemplates = []string{"index", "auth", "history", "goals"}

// parseTemplates loads templates/*.html from fsys and checks that every page
// template is defined.
func parseTemplates(fsys fs.FS) (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, name := range pageTemplates {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("parse templates: %q is not defined", name)
		}
	}
	return t, nil
}

// historyData is the history partial's model.
type historyData struct {
	services.HistoryView
	Now     time.Time
	Windows []core.DateWindow
}

type indexData struct {
	User              core.User
	View              services.DashboardView
	History           historyData
	ExpenseCategories []string
	IncomeCategories  []string
	Icons             []core.GoalIcon
}

type authData struct {
	Mode  string // "signin" or "signup"
	Email string
	Name  string
	Error string
}

var historyWindows = []core.DateWindow{core.WindowAll, core.WindowToday, core.WindowWeek, core.WindowMonth}

func newHistoryData(v services.HistoryView, now time.Time) historyData {
	return historyData{HistoryView: v, Now: now, Windows: historyWindows}
}

// render executes the named template into a buffer first so a failing
// template never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		fields := log.NewFields().WithOperation(log.OpRender).WithError(err)
		fields["template"] = name
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).
			ErrorContext(r.Context(), "Template execution failed", fields.ToSlice()...)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
