package model_test

import (
	"context"
	"math"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/psteco/hnat/pkg/domain/model"
)

func grid(w, h int, cellSize, nodata float64, cells []float64) *model.Raster {
	r := model.NewRaster(w, h, cellSize, 0, 0, nodata)
	copy(r.Cells, cells)
	return r
}

func TestCostDistanceStraightLine(t *testing.T) {
	friction := grid(3, 1, 10, -1, []float64{1, 1, 1})
	source := grid(3, 1, 10, 0, []float64{1, 0, 0})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.Equal(t, out.Cells, []float64{0, 10, 20})
	gt.Equal(t, out.NoData, -1.0)
}

func TestCostDistanceDiagonal(t *testing.T) {
	friction := grid(2, 2, 10, -1, []float64{1, 1, 1, 1})
	source := grid(2, 2, 10, 0, []float64{1, 0, 0, 0})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.Equal(t, out.At(1, 1), 10*math.Sqrt2)
}

func TestCostDistanceMeansFriction(t *testing.T) {
	friction := grid(2, 1, 10, -1, []float64{1, 3})
	source := grid(2, 1, 10, 0, []float64{1, 0})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.Equal(t, out.At(1, 0), 20.0) // (1+3)/2 * 10
}

func TestCostDistanceBarrier(t *testing.T) {
	friction := grid(3, 1, 10, -1, []float64{1, -1, 1})
	source := grid(3, 1, 10, 0, []float64{1, 0, 0})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.Equal(t, out.At(0, 0), 0.0)
	gt.True(t, out.IsNoData(1, 0))
	gt.True(t, out.IsNoData(2, 0))
}

func TestCostDistanceDetoursAroundBarrier(t *testing.T) {
	friction := grid(3, 3, 10, -1, []float64{
		1, -1, 1,
		1, -1, 1,
		1, 1, 1,
	})
	source := grid(3, 3, 10, 0, []float64{
		1, 0, 0,
		0, 0, 0,
		0, 0, 0,
	})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.True(t, out.IsNoData(1, 0))
	gt.True(t, !out.IsNoData(2, 0)) // reachable the long way around
	gt.True(t, out.At(2, 0) > out.At(2, 2))
}

func TestCostDistanceMaxCost(t *testing.T) {
	friction := grid(3, 1, 10, -1, []float64{1, 1, 1})
	source := grid(3, 1, 10, 0, []float64{1, 0, 0})

	out, err := model.CostDistance(context.Background(), friction, source,
		model.CostDistanceOptions{MaxCost: 10})
	gt.NoError(t, err)
	gt.Equal(t, out.At(1, 0), 10.0) // exactly at the cutoff is kept
	gt.True(t, out.IsNoData(2, 0))

	out, err = model.CostDistance(context.Background(), friction, source,
		model.CostDistanceOptions{MaxCost: 9.5})
	gt.NoError(t, err)
	gt.True(t, out.IsNoData(1, 0))
}

func TestCostDistanceKnightMove(t *testing.T) {
	friction := grid(3, 3, 10, -1, []float64{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})
	source := grid(3, 3, 10, 0, []float64{
		1, 0, 0,
		0, 0, 0,
		0, 0, 0,
	})

	queen, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	knight, err := model.CostDistance(context.Background(), friction, source,
		model.CostDistanceOptions{KnightMove: true})
	gt.NoError(t, err)

	gt.Equal(t, knight.At(1, 2), 10*math.Sqrt(5))
	gt.True(t, knight.At(1, 2) < queen.At(1, 2))
}

func TestCostDistanceNoSources(t *testing.T) {
	friction := grid(2, 1, 10, -1, []float64{1, 1})
	source := grid(2, 1, 10, 0, []float64{0, 0})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.Equal(t, out.ValidCount(), 0)
}

func TestCostDistanceSourceOnBarrier(t *testing.T) {
	friction := grid(2, 1, 10, -1, []float64{-1, 1})
	source := grid(2, 1, 10, 0, []float64{1, 0})

	out, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.NoError(t, err)
	gt.Equal(t, out.ValidCount(), 0)
}

func TestCostDistanceMisaligned(t *testing.T) {
	friction := grid(2, 1, 10, -1, []float64{1, 1})
	source := grid(3, 1, 10, 0, []float64{1, 0, 0})

	_, err := model.CostDistance(context.Background(), friction, source, model.CostDistanceOptions{})
	gt.Error(t, err)
}

func TestCostDistanceCanceled(t *testing.T) {
	n := 128
	friction := model.NewRaster(n, n, 10, 0, 0, -1)
	source := model.NewRaster(n, n, 10, 0, 0, 0)
	for i := range friction.Cells {
		friction.Cells[i] = 1
	}
	source.Set(0, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := model.CostDistance(ctx, friction, source, model.CostDistanceOptions{})
	gt.Error(t, err)
}

func TestMaxCostDistance(t *testing.T) {
	maxCost, err := model.MaxCostDistance(1200, 0.05)
	gt.NoError(t, err)
	gt.Equal(t, maxCost, math.Ceil(-1200*math.Log(0.05)))
	gt.Equal(t, maxCost, 3595.0)

	_, err = model.MaxCostDistance(0, 0.05)
	gt.Error(t, err)
	_, err = model.MaxCostDistance(1200, 0)
	gt.Error(t, err)
	_, err = model.MaxCostDistance(1200, 1)
	gt.Error(t, err)
}
