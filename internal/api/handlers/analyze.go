package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gcs"
	"github.com/dvloznov/finance-insights/internal/pipeline"
	"github.com/rs/zerolog"
)

const (
	// ContentTypeNDJSON selects the streamed response of POST /api/analyze.
	ContentTypeNDJSON = "application/x-ndjson"

	// GenericErrorMessage is shown above the detail of any failed run.
	GenericErrorMessage = "Error analyzing statement"

	// multipartOverhead allows for multipart framing on top of the file limit.
	multipartOverhead = 1 << 20

	// multipartMemory is how much of an upload is buffered in memory.
	multipartMemory = 8 << 20
)

// Analyzer runs one statement through the analysis pipeline.
type Analyzer interface {
	Run(ctx context.Context, src pipeline.Source, onProgress func(pipeline.Progress)) (*pipeline.PipelineState, error)
}

// AnalyzeResponse is the result of a successful run.
type AnalyzeResponse struct {
	RunID           string               `json:"run_id"`
	Transactions    []domain.Transaction `json:"transactions"`
	Analysis        string               `json:"analysis"`
	Recommendations string               `json:"recommendations"`
}

// ErrorResponse describes a failed run: a fixed message plus the full detail.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Stage  string `json:"stage,omitempty"`
}

// Streamed NDJSON events, one JSON object per line.
type (
	progressEvent struct {
		Type string `json:"type"`
		pipeline.Progress
	}
	resultEvent struct {
		Type string `json:"type"`
		AnalyzeResponse
	}
	errorEvent struct {
		Type string `json:"type"`
		ErrorResponse
	}
)

// AnalyzeHandler handles statement analysis requests.
type AnalyzeHandler struct {
	analyzer   Analyzer
	maxBytes   int64
	gcsEnabled bool
	log        zerolog.Logger
}

// NewAnalyzeHandler creates a new analyze handler. maxBytes limits uploads;
// gcsEnabled allows {"gcs_uri": ...} request bodies.
func NewAnalyzeHandler(analyzer Analyzer, maxBytes int64, gcsEnabled bool, log zerolog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:   analyzer,
		maxBytes:   maxBytes,
		gcsEnabled: gcsEnabled,
		log:        log,
	}
}

// Analyze handles POST /api/analyze. The statement is either the multipart
// field "file" or a JSON body {"gcs_uri": "gs://bucket/object"}. Clients
// sending Accept: application/x-ndjson get progress events as they happen.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	src, rejected := h.readSource(w, r)
	if rejected != nil {
		h.log.Warn().
			Str("request_id", middleware.GetRequestID(r.Context())).
			Int("status", rejected.status).
			Msg(rejected.message)
		middleware.WriteError(w, rejected.status, rejected.message)
		return
	}
	if c, ok := src.Reader.(io.Closer); ok {
		defer c.Close()
	}

	ctx := r.Context()

	if wantsStream(r) {
		h.stream(ctx, w, src)
		return
	}

	state, err := h.analyzer.Run(ctx, src, nil)
	if err != nil {
		middleware.WriteJSON(w, statusFor(err), errorResponse(err))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, responseFrom(state))
}

func (h *AnalyzeHandler) stream(ctx context.Context, w http.ResponseWriter, src pipeline.Source) {
	w.Header().Set("Content-Type", ContentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	emit := func(v interface{}) {
		if err := enc.Encode(v); err != nil {
			h.log.Debug().Err(err).Msg("Client went away while streaming")
			return
		}
		_ = rc.Flush()
	}

	state, err := h.analyzer.Run(ctx, src, func(p pipeline.Progress) {
		emit(progressEvent{Type: "progress", Progress: p})
	})
	if err != nil {
		emit(errorEvent{Type: "error", ErrorResponse: errorResponse(err)})
		return
	}
	emit(resultEvent{Type: "result", AnalyzeResponse: responseFrom(state)})
}

// rejection is an unusable request: the status and message to answer with.
type rejection struct {
	status  int
	message string
}

func reject(status int, message string) *rejection {
	return &rejection{status: status, message: message}
}

// readSource extracts the statement source from the request.
func (h *AnalyzeHandler) readSource(w http.ResponseWriter, r *http.Request) (pipeline.Source, *rejection) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return pipeline.Source{}, reject(http.StatusRequestEntityTooLarge, "File is too large")
			}
			return pipeline.Source{}, reject(http.StatusBadRequest, "Invalid multipart body")
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			return pipeline.Source{}, reject(http.StatusBadRequest, "File is required")
		}
		if header.Size > h.maxBytes {
			file.Close()
			return pipeline.Source{}, reject(http.StatusRequestEntityTooLarge, "File is too large")
		}
		return pipeline.Source{Filename: header.Filename, Reader: file}, nil

	case "application/json":
		var req struct {
			GCSURI string `json:"gcs_uri"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			return pipeline.Source{}, reject(http.StatusBadRequest, "Invalid request body")
		}
		if !h.gcsEnabled {
			return pipeline.Source{}, reject(http.StatusBadRequest, "gs:// sources are not enabled")
		}
		if _, _, err := gcs.ParseURI(req.GCSURI); err != nil {
			return pipeline.Source{}, reject(http.StatusBadRequest, "gcs_uri must look like gs://bucket/object")
		}
		return pipeline.Source{GCSURI: req.GCSURI}, nil

	default:
		return pipeline.Source{}, reject(http.StatusUnsupportedMediaType, "Expected multipart/form-data or application/json")
	}
}

func wantsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), ContentTypeNDJSON)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrSourceTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrNoSource), errors.Is(err, gcs.ErrInvalidURI):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: GenericErrorMessage, Detail: err.Error()}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		resp.Stage = stageErr.Stage
	}
	return resp
}

func responseFrom(state *pipeline.PipelineState) AnalyzeResponse {
	return AnalyzeResponse{
		RunID:           state.RunID,
		Transactions:    state.Transactions,
		Analysis:        state.Analysis,
		Recommendations: state.Recommendations,
	}
}
