package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// MapCodes reclassifies a biotope code raster against a lookup table.
// Each valid cell takes the table value of its biotope code when
// include(value) accepts it; cells with an unlisted or excluded code
// become 0; NoData input cells keep the output NoData marker. The
// output inherits biotope's grid geometry.
func MapCodes(biotope *Raster, codes []int, values []float64, include func(float64) bool, nodata float64) (*Raster, error) {
	if len(codes) != len(values) {
		return nil, goerr.New("biotope code and value columns differ in length",
			goerr.V("codes", len(codes)),
			goerr.V("values", len(values)),
		)
	}

	table := make(map[float64]float64, len(codes))
	for i, code := range codes {
		if include == nil || include(values[i]) {
			table[float64(code)] = values[i]
		}
	}

	out := NewAligned(biotope, nodata)
	for i, cell := range biotope.Cells {
		if cell == biotope.NoData {
			continue
		}
		if v, ok := table[cell]; ok {
			out.Cells[i] = v
		} else {
			out.Cells[i] = 0
		}
	}
	return out, nil
}
