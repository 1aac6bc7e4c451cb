// Package raster reads and writes the grid formats the analysis
// consumes and produces: ESRI ASCII grids, single-band GeoTIFF files
// and PNG previews.
package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

const defaultNoData = -9999

// ReadASC reads an ESRI ASCII grid. Header keys are matched case
// insensitively; xllcenter/yllcenter headers are converted to the
// corner convention. A missing nodata_value defaults to -9999.
func ReadASC(path string) (*model.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open raster", goerr.V("path", path))
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	sc.Split(bufio.ScanWords)

	hdr := map[string]float64{}
	var cells []float64
	for sc.Scan() {
		tok := sc.Text()
		c := tok[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			key := strings.ToLower(tok)
			if !sc.Scan() {
				return nil, goerr.New("header key without value",
					goerr.V("path", path), goerr.V("key", tok))
			}
			v, err := strconv.ParseFloat(sc.Text(), 64)
			if err != nil {
				return nil, goerr.Wrap(err, "malformed header value",
					goerr.V("path", path), goerr.V("key", tok))
			}
			hdr[key] = v
			continue
		}

		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "malformed cell value",
				goerr.V("path", path), goerr.V("token", tok))
		}
		if cells == nil {
			cells = make([]float64, 0, int(hdr["ncols"])*int(hdr["nrows"]))
		}
		cells = append(cells, v)
	}
	if err := sc.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read raster", goerr.V("path", path))
	}

	for _, key := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := hdr[key]; !ok {
			return nil, goerr.New("missing header", goerr.V("path", path), goerr.V("key", key))
		}
	}

	w, h := int(hdr["ncols"]), int(hdr["nrows"])
	cellSize := hdr["cellsize"]
	if w <= 0 || h <= 0 || cellSize <= 0 {
		return nil, goerr.New("degenerate raster header",
			goerr.V("path", path), goerr.V("ncols", w), goerr.V("nrows", h),
			goerr.V("cellsize", cellSize))
	}
	if len(cells) != w*h {
		return nil, goerr.New("cell count does not match header",
			goerr.V("path", path), goerr.V("expected", w*h), goerr.V("actual", len(cells)))
	}

	xll, ok := hdr["xllcorner"]
	if !ok {
		center, hasCenter := hdr["xllcenter"]
		if !hasCenter {
			return nil, goerr.New("missing header", goerr.V("path", path), goerr.V("key", "xllcorner"))
		}
		xll = center - cellSize/2
	}
	yll, ok := hdr["yllcorner"]
	if !ok {
		center, hasCenter := hdr["yllcenter"]
		if !hasCenter {
			return nil, goerr.New("missing header", goerr.V("path", path), goerr.V("key", "yllcorner"))
		}
		yll = center - cellSize/2
	}

	nodata, ok := hdr["nodata_value"]
	if !ok {
		nodata = defaultNoData
	}

	return &model.Raster{
		Width:    w,
		Height:   h,
		CellSize: cellSize,
		XLL:      xll,
		YLL:      yll,
		NoData:   nodata,
		Cells:    cells,
	}, nil
}

// WriteASC writes r as an ESRI ASCII grid.
func WriteASC(path string, r *model.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create raster", goerr.V("path", path))
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", r.Width)
	fmt.Fprintf(w, "nrows %d\n", r.Height)
	fmt.Fprintf(w, "xllcorner %s\n", formatCell(r.XLL))
	fmt.Fprintf(w, "yllcorner %s\n", formatCell(r.YLL))
	fmt.Fprintf(w, "cellsize %s\n", formatCell(r.CellSize))
	fmt.Fprintf(w, "nodata_value %s\n", formatCell(r.NoData))

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if x > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(formatCell(r.At(x, y)))
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return goerr.Wrap(err, "failed to write raster", goerr.V("path", path))
	}
	if err := f.Close(); err != nil {
		return goerr.Wrap(err, "failed to close raster", goerr.V("path", path))
	}
	return nil
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
