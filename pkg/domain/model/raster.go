package model

import (
	"math"
)

// SampleDepth selects the storage type of a written raster band.
type SampleDepth int

const (
	// DepthFloat32 stores cells as IEEE 754 single precision values.
	DepthFloat32 SampleDepth = iota
	// DepthByte stores cells as unsigned 8-bit integers.
	DepthByte
)

// Raster is a single-band grid in a projected, equidistant CRS with
// square cells. Cells are row-major with row 0 at the northern edge,
// the ESRI ASCII grid layout. NoData is the in-band marker value.
type Raster struct {
	Width    int
	Height   int
	CellSize float64 // cell edge length in map units (metres)
	XLL      float64 // x coordinate of the lower-left grid corner
	YLL      float64 // y coordinate of the lower-left grid corner
	NoData   float64
	Cells    []float64
}

// NewRaster allocates a w×h raster with every cell set to the NoData marker.
func NewRaster(w, h int, cellSize, xll, yll, nodata float64) *Raster {
	r := &Raster{
		Width:    w,
		Height:   h,
		CellSize: cellSize,
		XLL:      xll,
		YLL:      yll,
		NoData:   nodata,
		Cells:    make([]float64, w*h),
	}
	if nodata != 0 {
		for i := range r.Cells {
			r.Cells[i] = nodata
		}
	}
	return r
}

// NewAligned allocates a raster sharing ref's grid geometry, with the
// given NoData marker and every cell NoData.
func NewAligned(ref *Raster, nodata float64) *Raster {
	return NewRaster(ref.Width, ref.Height, ref.CellSize, ref.XLL, ref.YLL, nodata)
}

// AlignedWith reports whether o shares r's grid geometry.
func (r *Raster) AlignedWith(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height &&
		r.CellSize == o.CellSize && r.XLL == o.XLL && r.YLL == o.YLL
}

// At returns the cell value at column x, row y (row 0 = north).
func (r *Raster) At(x, y int) float64 { return r.Cells[y*r.Width+x] }

// Set assigns the cell value at column x, row y.
func (r *Raster) Set(x, y int, v float64) { r.Cells[y*r.Width+x] = v }

// IsNoData reports whether the cell at x, y holds the NoData marker.
func (r *Raster) IsNoData(x, y int) bool {
	v := r.Cells[y*r.Width+x]
	return v == r.NoData || math.IsNaN(v)
}

// MinMax returns the extremes over valid cells. ok is false when every
// cell is NoData.
func (r *Raster) MinMax() (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range r.Cells {
		if v == r.NoData || math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return min, max, true
}

// ValidCount returns the number of cells that are not NoData.
func (r *Raster) ValidCount() int {
	n := 0
	for _, v := range r.Cells {
		if v != r.NoData && !math.IsNaN(v) {
			n++
		}
	}
	return n
}
