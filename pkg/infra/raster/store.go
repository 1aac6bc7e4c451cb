package raster

import (
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Write stores r at path in the given format.
func Write(path string, r *model.Raster, depth model.SampleDepth, format model.RasterFormat) error {
	switch format {
	case model.FormatGeoTIFF:
		return WriteTIFF(path, r, depth)
	case model.FormatASCIIGrid:
		return WriteASC(path, r)
	}
	return goerr.New("unsupported raster format", goerr.V("format", format))
}

// Read loads a raster, dispatching on the file extension.
func Read(path string) (*model.Raster, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc", ".txt":
		return ReadASC(path)
	case ".tif", ".tiff":
		return ReadTIFF(path)
	}
	return nil, goerr.New("unsupported raster extension", goerr.V("path", path))
}
