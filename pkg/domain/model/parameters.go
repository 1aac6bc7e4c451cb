package model

import (
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// Header labels of the network parameter table, exactly as they appear
// in the spreadsheet. Where two labels are listed the vocabulary has
// changed across table revisions and both spellings stay accepted.
const (
	BiotopeCodeHeader = "BiotopeCode"

	NameParam      = "Network name"
	DispersalParam = "Average dispersal distance (metres)"

	QualityColumn  = "Quality"
	FrictionColumn = "Friction"
)

var (
	ThresholdParams = []string{"Network threshold", "Minimum dispersal probability"}
	SourceColumns   = []string{"Source", "Reproduction"}
)

// ParameterSet holds one network's scalar parameters plus its per-code
// value columns, keyed by their table header labels.
type ParameterSet struct {
	Parameters map[string]any
	Columns    map[string][]float64
}

// Parameter returns the first scalar found under any of the given
// header labels.
func (p *ParameterSet) Parameter(names ...string) (any, error) {
	for _, name := range names {
		if v, ok := p.Parameters[name]; ok {
			return v, nil
		}
	}
	return nil, goerr.New("missing parameter", goerr.V("names", names))
}

// Column returns the first value column found under any of the given
// header labels.
func (p *ParameterSet) Column(names ...string) ([]float64, error) {
	for _, name := range names {
		if v, ok := p.Columns[name]; ok {
			return v, nil
		}
	}
	return nil, goerr.New("missing column", goerr.V("names", names))
}

// Name returns the network name this parameter set describes. Numeric
// names, legal in the spreadsheet form, are formatted as written.
func (p *ParameterSet) Name() string {
	v, err := p.Parameter(NameParam)
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

// DispersalDistance returns the network's average dispersal distance in
// metres.
func (p *ParameterSet) DispersalDistance() (float64, error) {
	v, err := p.Parameter(DispersalParam)
	if err != nil {
		return 0, err
	}
	return toFloat(v, DispersalParam)
}

// NetworkThreshold returns the minimum dispersal probability that still
// counts a cell as part of the network.
func (p *ParameterSet) NetworkThreshold() (float64, error) {
	v, err := p.Parameter(ThresholdParams...)
	if err != nil {
		return 0, err
	}
	return toFloat(v, ThresholdParams[0])
}

func toFloat(v any, name string) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, goerr.New("parameter is not numeric",
		goerr.V("name", name), goerr.V("value", v))
}

// BatchParameters is the parsed network parameter table: the shared
// biotope code column and one ParameterSet per network.
type BatchParameters struct {
	BiotopeCodes []int
	Sets         []*ParameterSet
}
