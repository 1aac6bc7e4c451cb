package model

import (
	"container/heap"
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// CostDistanceOptions bound the accumulated-cost expansion.
type CostDistanceOptions struct {
	// MaxCost stops the expansion: cells whose cheapest accumulated cost
	// would exceed it stay NoData. Zero or negative means unbounded.
	MaxCost float64

	// KnightMove adds the 16-cell knight neighborhood to the 8-cell
	// queen neighborhood, trading runtime for smoother isocost lines.
	KnightMove bool
}

type costMove struct {
	dx, dy int
	factor float64 // center-to-center distance in cell sizes
}

var queenMoves = []costMove{
	{1, 0, 1}, {-1, 0, 1}, {0, 1, 1}, {0, -1, 1},
	{1, 1, math.Sqrt2}, {1, -1, math.Sqrt2}, {-1, 1, math.Sqrt2}, {-1, -1, math.Sqrt2},
}

var knightMoves = []costMove{
	{1, 2, math.Sqrt(5)}, {2, 1, math.Sqrt(5)}, {2, -1, math.Sqrt(5)}, {1, -2, math.Sqrt(5)},
	{-1, -2, math.Sqrt(5)}, {-2, -1, math.Sqrt(5)}, {-2, 1, math.Sqrt(5)}, {-1, 2, math.Sqrt(5)},
}

type costNode struct {
	cost float64
	idx  int32
}

type costHeap []costNode

func (h costHeap) Len() int            { return len(h) }
func (h costHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h costHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *costHeap) Push(x any)         { *h = append(*h, x.(costNode)) }
func (h *costHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// CostDistance computes the cheapest accumulated travel cost from any
// source cell across a friction surface, a multi-source Dijkstra
// expansion. Friction holds the cost of moving one metre within a cell;
// stepping between two cells costs the mean of their friction values
// times the center distance. NoData friction cells are barriers.
// Source cells are the valid cells of source equal to 1 and start at
// cost zero. Unreached cells keep the output NoData marker (-1).
func CostDistance(ctx context.Context, friction, source *Raster, opts CostDistanceOptions) (*Raster, error) {
	if !friction.AlignedWith(source) {
		return nil, goerr.New("friction and source rasters are not aligned",
			goerr.V("friction", [2]int{friction.Width, friction.Height}),
			goerr.V("source", [2]int{source.Width, source.Height}),
		)
	}

	w, h := friction.Width, friction.Height
	dist := make([]float64, w*h)
	for i := range dist {
		dist[i] = math.Inf(1)
	}

	pq := make(costHeap, 0, 1024)
	for i, v := range source.Cells {
		if v == source.NoData || v != 1 {
			continue
		}
		if friction.Cells[i] == friction.NoData {
			continue // a source on a barrier cell cannot spread
		}
		dist[i] = 0
		pq = append(pq, costNode{cost: 0, idx: int32(i)})
	}
	heap.Init(&pq)

	moves := queenMoves
	if opts.KnightMove {
		moves = make([]costMove, 0, len(queenMoves)+len(knightMoves))
		moves = append(moves, queenMoves...)
		moves = append(moves, knightMoves...)
	}

	pops := 0
	for pq.Len() > 0 {
		node := heap.Pop(&pq).(costNode)
		i := int(node.idx)
		if node.cost > dist[i] {
			continue // superseded by a cheaper path
		}

		pops++
		if pops&0x0fff == 0 {
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "cost-distance expansion canceled",
					goerr.V("visited", pops),
				)
			default:
			}
		}

		x, y := i%w, i/w
		fi := friction.Cells[i]
		for _, m := range moves {
			nx, ny := x+m.dx, y+m.dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			fj := friction.Cells[j]
			if fj == friction.NoData {
				continue
			}
			c := node.cost + (fi+fj)/2*m.factor*friction.CellSize
			if opts.MaxCost > 0 && c > opts.MaxCost {
				continue
			}
			if c < dist[j] {
				dist[j] = c
				heap.Push(&pq, costNode{cost: c, idx: int32(j)})
			}
		}
	}

	out := NewAligned(friction, -1)
	for i, d := range dist {
		if !math.IsInf(d, 1) {
			out.Cells[i] = d
		}
	}
	return out, nil
}

// MaxCostDistance derives the expansion cutoff from the network
// parameters: the accumulated cost beyond which the dispersal
// probability exp(-cost/meanDispersal) drops under threshold, rounded
// up to a whole metre.
func MaxCostDistance(meanDispersal, threshold float64) (float64, error) {
	if meanDispersal <= 0 {
		return 0, goerr.New("average dispersal distance must be positive",
			goerr.V("value", meanDispersal))
	}
	if threshold <= 0 || threshold >= 1 {
		return 0, goerr.New("network threshold must be between 0 and 1 exclusive",
			goerr.V("value", threshold))
	}
	return math.Ceil(-meanDispersal * math.Log(threshold)), nil
}
