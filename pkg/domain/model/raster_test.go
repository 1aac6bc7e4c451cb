package model_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/psteco/hnat/pkg/domain/model"
)

func TestRasterMinMax(t *testing.T) {
	r := grid(4, 1, 10, -1, []float64{5, -1, 2, 9})

	min, max, ok := r.MinMax()
	gt.True(t, ok)
	gt.Equal(t, min, 2.0)
	gt.Equal(t, max, 9.0)
}

func TestRasterMinMaxAllNoData(t *testing.T) {
	r := model.NewRaster(3, 3, 10, 0, 0, -1)
	_, _, ok := r.MinMax()
	gt.True(t, !ok)
}

func TestRasterNoDataNaN(t *testing.T) {
	r := grid(2, 1, 10, math.NaN(), []float64{math.NaN(), 4})

	gt.True(t, r.IsNoData(0, 0))
	gt.True(t, !r.IsNoData(1, 0))
	gt.Equal(t, r.ValidCount(), 1)

	min, max, ok := r.MinMax()
	gt.True(t, ok)
	gt.Equal(t, min, 4.0)
	gt.Equal(t, max, 4.0)
}

func TestNewAligned(t *testing.T) {
	ref := model.NewRaster(7, 3, 25, 1000, 2000, -9999)
	out := model.NewAligned(ref, 255)

	gt.True(t, out.AlignedWith(ref))
	gt.Equal(t, out.NoData, 255.0)
	gt.Equal(t, out.ValidCount(), 0)
}

func TestRasterAtSet(t *testing.T) {
	r := model.NewRaster(3, 2, 10, 0, 0, -1)
	r.Set(2, 1, 8)

	gt.Equal(t, r.At(2, 1), 8.0)
	gt.Equal(t, r.Cells[1*3+2], 8.0)
}
