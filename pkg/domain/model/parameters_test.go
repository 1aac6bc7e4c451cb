package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/psteco/hnat/pkg/domain/model"
)

func woodlandSet() *model.ParameterSet {
	return &model.ParameterSet{
		Parameters: map[string]any{
			model.NameParam:      "Woodland",
			model.DispersalParam: int64(1200),
			"Network threshold":  0.05,
		},
		Columns: map[string][]float64{
			model.QualityColumn:  {3, 0, 7},
			"Reproduction":       {1, 0, 1},
			model.FrictionColumn: {1, 5, 30},
		},
	}
}

func TestParameterSetAccessors(t *testing.T) {
	set := woodlandSet()

	gt.Equal(t, set.Name(), "Woodland")

	dist, err := set.DispersalDistance()
	gt.NoError(t, err)
	gt.Equal(t, dist, 1200.0)

	threshold, err := set.NetworkThreshold()
	gt.NoError(t, err)
	gt.Equal(t, threshold, 0.05)
}

func TestParameterSetThresholdAlias(t *testing.T) {
	set := woodlandSet()
	delete(set.Parameters, "Network threshold")
	set.Parameters["Minimum dispersal probability"] = 0.1

	threshold, err := set.NetworkThreshold()
	gt.NoError(t, err)
	gt.Equal(t, threshold, 0.1)
}

func TestParameterSetColumnAlias(t *testing.T) {
	set := woodlandSet()

	col, err := set.Column(model.SourceColumns...)
	gt.NoError(t, err)
	gt.Equal(t, col, []float64{1, 0, 1})

	_, err = set.Column("Habitat")
	gt.Error(t, err)
}

func TestParameterSetMissing(t *testing.T) {
	set := &model.ParameterSet{
		Parameters: map[string]any{},
		Columns:    map[string][]float64{},
	}

	gt.Equal(t, set.Name(), "")
	_, err := set.DispersalDistance()
	gt.Error(t, err)
	_, err = set.NetworkThreshold()
	gt.Error(t, err)
}

func TestParameterSetNonNumeric(t *testing.T) {
	set := woodlandSet()
	set.Parameters[model.DispersalParam] = "fast"

	_, err := set.DispersalDistance()
	gt.Error(t, err)
}
