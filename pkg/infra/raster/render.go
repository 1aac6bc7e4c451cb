package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/model"
)

// RenderPNG writes a preview image of the layer. NoData cells are
// transparent; valid cells take the layer ramp scaled from zero to
// RampMax, or to the band maximum when RampMax is unset.
func RenderPNG(path string, layer *model.Layer) error {
	r := layer.Raster
	hi := layer.RampMax
	if hi <= 0 {
		if _, max, ok := r.MinMax(); ok {
			hi = max
		}
	}
	if hi <= 0 {
		hi = 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			if r.IsNoData(x, y) {
				continue
			}
			c := layer.Ramp.At(r.At(x, y) / hi)
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create preview", goerr.V("path", path))
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return goerr.Wrap(err, "failed to encode preview", goerr.V("path", path))
	}
	if err := f.Close(); err != nil {
		return goerr.Wrap(err, "failed to close preview", goerr.V("path", path))
	}
	return nil
}
