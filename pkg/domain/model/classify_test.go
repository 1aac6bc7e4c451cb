package model_test

import (
	"testing"

	"github.com/psteco/hnat/pkg/domain/model"
)

func TestMapCodes(t *testing.T) {
	biotope := grid(5, 1, 10, -9999, []float64{100, 200, 300, 400, -9999})
	codes := []int{100, 200, 300}

	tests := []struct {
		name     string
		values   []float64
		include  func(float64) bool
		nodata   float64
		expected []float64
	}{
		{
			name:     "quality keeps every listed value",
			values:   []float64{3, 0, 7},
			include:  nil,
			nodata:   255,
			expected: []float64{3, 0, 7, 0, 255},
		},
		{
			name:     "source keeps only reproduction cells",
			values:   []float64{1, 0, 1},
			include:  func(v float64) bool { return v == 1 },
			nodata:   0,
			expected: []float64{1, 0, 1, 0, 0},
		},
		{
			name:     "friction drops nonpositive values",
			values:   []float64{2.5, -1, 0},
			include:  func(v float64) bool { return v > 0 },
			nodata:   -1,
			expected: []float64{2.5, 0, 0, 0, -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := model.MapCodes(biotope, codes, tt.values, tt.include, tt.nodata)
			if err != nil {
				t.Fatalf("MapCodes() error = %v", err)
			}
			for i, want := range tt.expected {
				if out.Cells[i] != want {
					t.Errorf("cell %d = %v, want %v", i, out.Cells[i], want)
				}
			}
			if out.NoData != tt.nodata {
				t.Errorf("NoData = %v, want %v", out.NoData, tt.nodata)
			}
		})
	}
}

func TestMapCodesLengthMismatch(t *testing.T) {
	biotope := grid(1, 1, 10, -9999, []float64{100})
	if _, err := model.MapCodes(biotope, []int{100, 200}, []float64{1}, nil, 0); err == nil {
		t.Error("expected an error for mismatched column lengths")
	}
}
