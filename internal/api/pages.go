package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rajeshwari-s-9360/health-chatbot-with-prediction-and-calculation/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{
	"index":    parsePage("index.html"),
	"login":    parsePage("login.html"),
	"register": parsePage("register.html"),
	"history":  parsePage("history.html"),
	"pac":      parsePage("pac.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type pageData struct {
	Title    string
	Flash    string
	Username string
	Messages []store.ChatMessage
	Forms    []pacForm
}

type pacForm struct {
	Condition string
	Features  []string
}

// render executes into a buffer first so a template error never leaves a half-written page.
func (h *APIHandler) render(w http.ResponseWriter, page string, data pageData) {
	tmpl, ok := pages[page]
	if !ok {
		h.log.Error("Unknown page", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error("Failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
