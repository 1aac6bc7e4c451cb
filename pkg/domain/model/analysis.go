package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// RasterFormat selects the on-disk encoding of output rasters.
type RasterFormat string

const (
	// FormatGeoTIFF writes single-band GeoTIFF files (.tif).
	FormatGeoTIFF RasterFormat = "tif"
	// FormatASCIIGrid writes ESRI ASCII grid files (.asc).
	FormatASCIIGrid RasterFormat = "asc"
)

// Ext returns the file extension including the dot.
func (f RasterFormat) Ext() string { return "." + string(f) }

// AnalysisRequest is one batch run over a biotope raster and a network
// parameter table.
type AnalysisRequest struct {
	BiotopeRaster  string
	ParameterTable string
	OutputDir      string
	Format         RasterFormat
	Previews       bool
	KnightMove     bool
	Workers        int
}

// Validate checks the request before any file is touched.
func (r *AnalysisRequest) Validate() error {
	if r.BiotopeRaster == "" {
		return goerr.New("biotope raster path is required")
	}
	if r.ParameterTable == "" {
		return goerr.New("parameter table path is required")
	}
	if r.OutputDir == "" {
		return goerr.New("output directory is required")
	}
	switch r.Format {
	case FormatGeoTIFF, FormatASCIIGrid:
	default:
		return goerr.New("unsupported raster format", goerr.V("format", r.Format))
	}
	if r.Workers < 1 {
		return goerr.New("workers must be at least 1", goerr.V("workers", r.Workers))
	}
	return nil
}

// Layer is one produced raster together with how it should be rendered
// and stored.
type Layer struct {
	// Title is the layer's display name, also used in the output file
	// name as "<network> - <title>".
	Title  string
	Raster *Raster
	Depth  SampleDepth
	Ramp   ColorRamp

	// RampMax pins the upper end of the color ramp. Zero means the
	// band maximum.
	RampMax float64
}
