package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/dvloznov/finance-insights/internal/api"
	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/pipeline"
	"github.com/dvloznov/finance-insights/internal/statement"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, tempDir string) http.Handler {
	t.Helper()

	extractor := llm.CompleterFunc(func(context.Context, string) (string, error) {
		t.Error("extractor must not be called for CSV input")
		return "", nil
	})
	insightLLM := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "30-DAY ACTION PLAN") {
			return "PRIORITY RECOMMENDATIONS: cook at home", nil
		}
		return "TOTAL SPENDING: $130.00", nil
	})

	runner := pipeline.NewRunner(pipeline.Options{
		Normalizer: statement.NewNormalizer(extractor, statement.DefaultConfig()),
		Generator:  insights.NewGenerator(insightLLM),
		TempDir:    tempDir,
		MaxBytes:   1 << 20,
	})

	return api.NewRouter(api.RouterConfig{
		Analyzer:       runner,
		MaxUploadBytes: 1 << 20,
		Log:            zerolog.Nop(),
	})
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRouter_AnalyzeCSVUpload(t *testing.T) {
	tempDir := t.TempDir()
	router := newTestRouter(t, tempDir)

	csv := "Date,Description,Debit,Credit\n01/05/2024,Supermarket ₹,125.50,\n01/06/2024,Salary,,4.50\n"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "statement.csv", csv))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp handlers.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "TOTAL SPENDING: $130.00", resp.Analysis)
	assert.Equal(t, "PRIORITY RECOMMENDATIONS: cook at home", resp.Recommendations)

	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "2024-01-05", resp.Transactions[0].Date)
	assert.Equal(t, -125.5, resp.Transactions[0].Amount)
	assert.Equal(t, "₹", string(resp.Transactions[0].Currency))
	assert.Equal(t, 4.5, resp.Transactions[1].Amount)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload must be removed after the run")
}

func TestRouter_AnalyzeStream(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	req := uploadRequest(t, "statement.csv", "Date,Description,Amount\n2024-01-01,Coffee,-4.50\n")
	req.Header.Set("Accept", handlers.ContentTypeNDJSON)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 6)

	var percents []float64
	for _, line := range lines[:5] {
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, "progress", ev["type"])
		percents = append(percents, ev["percent"].(float64))
	}
	assert.Equal(t, []float64{20, 40, 50, 75, 100}, percents)

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[5]), &last))
	assert.Equal(t, "result", last["type"])
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantType   string
	}{
		{name: "index", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantType: "text/html; charset=utf-8"},
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantType: "application/json"},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound, wantType: "application/json"},
		{name: "analyze via GET", method: http.MethodGet, path: "/api/analyze", wantStatus: http.StatusMethodNotAllowed, wantType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_KeepsCallerRequestID(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
