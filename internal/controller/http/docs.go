package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: "{{.DocURL}}", dom_id: "#docs"});</script>
</body>
</html>`))

// DocsHandler serves the chat API's OpenAPI document and a browser page for it
type DocsHandler struct {
	title string
	doc   []byte

	jsonOnce sync.Once
	json     []byte
	jsonErr  error
}

func NewDocsHandler(title string, doc []byte) *DocsHandler {
	return &DocsHandler{title: title, doc: doc}
}

func (h *DocsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/docs", h.page)
	r.Get("/docs/openapi.yaml", h.yaml)
	r.Get("/docs/openapi.json", h.docJSON)
}

func (h *DocsHandler) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Title, DocURL string }{Title: h.title, DocURL: "/docs/openapi.json"}
	if err := docsPage.Execute(w, data); err != nil {
		http.Error(w, "failed to render docs", http.StatusInternalServerError)
	}
}

func (h *DocsHandler) yaml(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(h.doc)
}

// docJSON converts the YAML document once, on first request
func (h *DocsHandler) docJSON(w http.ResponseWriter, r *http.Request) {
	h.jsonOnce.Do(func() {
		var v any
		if h.jsonErr = yaml.Unmarshal(h.doc, &v); h.jsonErr != nil {
			return
		}
		h.json, h.jsonErr = json.Marshal(v)
	})
	if h.jsonErr != nil {
		http.Error(w, "failed to convert document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(h.json)
}
