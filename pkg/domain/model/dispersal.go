package model

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// DispersalProbability maps accumulated cost distance to the
// probability exp(-cost/meanDispersal) of an individual covering that
// distance. Source cells (cost zero) map to exactly 1. NoData cost
// cells stay NoData; the output marker is 0.
func DispersalProbability(cost *Raster, meanDispersal float64) (*Raster, error) {
	if meanDispersal <= 0 {
		return nil, goerr.New("average dispersal distance must be positive",
			goerr.V("value", meanDispersal))
	}

	out := NewAligned(cost, 0)
	for i, c := range cost.Cells {
		if c == cost.NoData {
			continue
		}
		out.Cells[i] = math.Exp(-c / meanDispersal)
	}
	return out, nil
}

// Functionality multiplies dispersal probability with habitat quality
// and fills every hole with zero, so the final surface is gapless.
// Cells where either input is NoData become 0.
func Functionality(dispersal, quality *Raster) (*Raster, error) {
	if !dispersal.AlignedWith(quality) {
		return nil, goerr.New("dispersal and quality rasters are not aligned",
			goerr.V("dispersal", [2]int{dispersal.Width, dispersal.Height}),
			goerr.V("quality", [2]int{quality.Width, quality.Height}),
		)
	}

	out := NewAligned(dispersal, -1)
	for i := range out.Cells {
		d, q := dispersal.Cells[i], quality.Cells[i]
		if d == dispersal.NoData || q == quality.NoData {
			out.Cells[i] = 0
			continue
		}
		out.Cells[i] = d * q
	}
	return out, nil
}
