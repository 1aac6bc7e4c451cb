package http

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// RunsHandler serves the analysis run reports stored in the data
// directory.
type RunsHandler struct {
	dir string
}

// NewRunsHandler creates a run report handler over dir
func NewRunsHandler(dir string) *RunsHandler {
	return &RunsHandler{dir: dir}
}

// List responds with all stored run reports, newest first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	matches, err := filepath.Glob(filepath.Join(h.dir, model.RunReportPrefix+"*.json"))
	if err != nil {
		writeError(w, goerr.Wrap(err, "failed to scan run reports"), http.StatusInternalServerError)
		return
	}

	reports := make([]*model.RunReport, 0, len(matches))
	for _, path := range matches {
		report, err := readRunReport(path)
		if err != nil {
			// A half-written or foreign file must not take the listing down.
			ctxlog.From(r.Context()).Warn("Skipping unreadable run report",
				"path", path, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})

	writeJSON(w, r, reports)
}

// Get responds with a single run report by its ID.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		writeError(w, goerr.New("invalid run id"), http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.dir, model.RunReportPrefix+id+".json")
	report, err := readRunReport(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, goerr.New("run not found", goerr.V("id", id)), http.StatusNotFound)
		return
	case err != nil:
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, report)
}

func readRunReport(path string) (*model.RunReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report model.RunReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, goerr.Wrap(err, "failed to parse run report", goerr.V("path", path))
	}
	return &report, nil
}
