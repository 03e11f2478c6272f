package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/rs/zerolog"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// AcceptedUploads lists the file types offered by the upload control.
const AcceptedUploads = ".csv,.xlsx,.xls,.pdf"

// pageData feeds templates/index.html.
type pageData struct {
	Title        string
	Accept       string
	MaxUploadMB  int64
	AnalyzePath  string
	StreamFormat string
	ErrorMessage string
}

// UIHandler serves the single-page upload interface.
type UIHandler struct {
	maxUploadMB int64
	log         zerolog.Logger
}

// NewUIHandler creates a new UI handler.
func NewUIHandler(maxUploadMB int64, log zerolog.Logger) *UIHandler {
	return &UIHandler{maxUploadMB: maxUploadMB, log: log}
}

// Index handles GET /
func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, pageData{
		Title:        "Finance Insights",
		Accept:       AcceptedUploads,
		MaxUploadMB:  h.maxUploadMB,
		AnalyzePath:  "/api/analyze",
		StreamFormat: ContentTypeNDJSON,
		ErrorMessage: GenericErrorMessage,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render index page")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
