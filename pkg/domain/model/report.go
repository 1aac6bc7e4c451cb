package model

import (
	"time"
)

// RunReportPrefix starts the file name of every stored run report,
// followed by the run ID and a .json suffix.
const RunReportPrefix = "hnat_run_"

// RunReport records one analysis run. It is written as
// hnat_run_<id>.json into the output directory and served by the
// result server.
type RunReport struct {
	ID             string          `json:"id"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	BiotopeRaster  string          `json:"biotope_raster"`
	ParameterTable string          `json:"parameter_table"`
	OutputDir      string          `json:"output_dir"`
	Networks       []NetworkReport `json:"networks"`
}

// Duration is the wall-clock time the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NetworkReport records the outcome for one habitat network.
type NetworkReport struct {
	Name              string        `json:"name"`
	DispersalDistance float64       `json:"dispersal_distance_m"`
	NetworkThreshold  float64       `json:"network_threshold"`
	MaxCostDistance   float64       `json:"max_cost_distance_m"`
	Layers            []LayerReport `json:"layers"`
}

// LayerReport records one written raster layer.
type LayerReport struct {
	Title   string  `json:"title"`
	Path    string  `json:"path"`
	Preview string  `json:"preview,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}
