package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	controller "github.com/psteco/hnat/pkg/controller/http"
	"github.com/psteco/hnat/pkg/domain/model"
)

func newTestServer(t *testing.T, dir string) *controller.Server {
	t.Helper()
	server, err := controller.NewServer(context.Background(), dir, controller.WithAddr("localhost:0"))
	gt.NoError(t, err)
	return server
}

func writeReport(t *testing.T, dir, id string, startedAt time.Time) {
	t.Helper()
	report := &model.RunReport{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Minute),
		OutputDir:  dir,
	}
	raw, err := json.Marshal(report)
	gt.NoError(t, err)
	name := model.RunReportPrefix + id + ".json"
	gt.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0644))
}

func TestRunsList(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	writeReport(t, dir, "older", base)
	writeReport(t, dir, "newer", base.Add(time.Hour))
	// a corrupt report must not break the listing
	gt.NoError(t, os.WriteFile(filepath.Join(dir, model.RunReportPrefix+"broken.json"), []byte("{"), 0644))

	server := newTestServer(t, dir)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	gt.Equal(t, w.Code, http.StatusOK)
	var reports []*model.RunReport
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&reports))
	gt.Number(t, len(reports)).Equal(2)
	gt.Equal(t, reports[0].ID, "newer")
	gt.Equal(t, reports[1].ID, "older")
}

func TestRunsGet(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, dir, "abc-123", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	server := newTestServer(t, dir)

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/abc-123", nil))

		gt.Equal(t, w.Code, http.StatusOK)
		var report model.RunReport
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		gt.Equal(t, report.ID, "abc-123")
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/missing", nil))
		gt.Equal(t, w.Code, http.StatusNotFound)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+url.PathEscape("..%2fsecret"), nil))
		gt.Equal(t, w.Code, http.StatusBadRequest)
	})
}

func TestFilesEndpoint(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, "Woodland"), 0755))
	body := []byte("png bytes")
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "Woodland", "Woodland - Source Raster.png"), body, 0644))

	server := newTestServer(t, dir)
	w := httptest.NewRecorder()
	target := "/files/Woodland/" + url.PathEscape("Woodland - Source Raster.png")
	server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	gt.Equal(t, w.Code, http.StatusOK)
	gt.Equal(t, w.Body.Bytes(), body)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, t.TempDir())

	// Generate one request worth of samples first.
	server.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	gt.Equal(t, w.Code, http.StatusOK)
	metrics := w.Body.String()
	gt.String(t, metrics).Contains("hnat_http_requests_total")
	gt.String(t, metrics).Contains(`path="/api/runs"`)
	gt.String(t, metrics).Contains("hnat_http_request_duration_seconds")
}
