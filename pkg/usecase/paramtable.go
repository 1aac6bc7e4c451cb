package usecase

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/psteco/hnat/pkg/domain/model"
	"github.com/psteco/hnat/pkg/infra/xlsx"
)

// LoadParameterTable reads a network parameter table. Spreadsheets
// (.xlsx) follow the block layout of the field survey tables; .yaml
// files use the explicit list form.
func LoadParameterTable(ctx context.Context, path string) (*model.BatchParameters, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadParameterSheet(ctx, path)
	case ".yaml", ".yml":
		return loadParameterYAML(ctx, path)
	}
	return nil, goerr.New("unsupported parameter table format", goerr.V("path", path))
}

func loadParameterSheet(ctx context.Context, path string) (*model.BatchParameters, error) {
	logger := ctxlog.From(ctx)

	wb, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	sheet, err := wb.First()
	if err != nil {
		return nil, goerr.Wrap(err, "empty parameter table", goerr.V("path", path))
	}
	logger.Info("Loading parameters", "path", path, "sheet", sheet.Name)

	batch, err := parseParameterSheet(sheet)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse parameter table", goerr.V("path", path))
	}

	logger.Info("Loaded parameter table",
		"biotope_codes", len(batch.BiotopeCodes),
		"networks", len(batch.Sets),
	)
	return batch, nil
}

// parseParameterSheet walks the survey table layout: somewhere in the
// sheet sits a header row containing "BiotopeCode"; the rows above it
// carry per-network scalar parameters labeled in the column where
// "Network name" appears; below the header row, one fully populated
// column of biotope codes plus per-network blocks of value columns.
// A new block starts at every column where the network name row has a
// value.
func parseParameterSheet(sheet *xlsx.Sheet) (*model.BatchParameters, error) {
	rows := sheet.Rows

	headerRowIdx, codeCol := -1, -1
	for i, row := range rows {
		for j, cell := range row {
			if s, ok := cell.(string); ok && s == model.BiotopeCodeHeader {
				headerRowIdx, codeCol = i, j
				break
			}
		}
		if headerRowIdx >= 0 {
			break
		}
	}
	if headerRowIdx < 0 {
		return nil, goerr.New(fmt.Sprintf("column header %q not found", model.BiotopeCodeHeader))
	}

	// Stored rows are ragged. The block walk below needs the sheet's
	// full width, not the length of whichever row it happens to index.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	headerCol := -1
	for i := 0; i < headerRowIdx && headerCol < 0; i++ {
		for j, cell := range rows[i] {
			if s, ok := cell.(string); ok && s == model.NameParam {
				headerCol = j
				break
			}
		}
	}
	if headerCol < 0 {
		return nil, goerr.New(fmt.Sprintf("row header %q not found", model.NameParam))
	}

	rowHeaders := map[string]int{}
	for i := 0; i < headerRowIdx; i++ {
		if name := cellString(cellAt(rows, i, headerCol)); name != "" {
			rowHeaders[name] = i
		}
	}

	required := [][]string{{model.NameParam}, {model.DispersalParam}, model.ThresholdParams}
	for _, aliases := range required {
		if _, ok := findRowHeader(rowHeaders, aliases); !ok {
			if len(aliases) == 1 {
				return nil, goerr.New(fmt.Sprintf("row header %q not found", aliases[0]))
			}
			return nil, goerr.New(fmt.Sprintf(
				"none of the following row headers were found: %q", strings.Join(aliases, `", "`)))
		}
	}

	codeCount := len(rows) - headerRowIdx - 1
	if codeCount <= 0 {
		return nil, goerr.New("no biotope code rows below the header row")
	}
	rawCodes, err := columnValues(rows, codeCol, headerRowIdx+1, codeCount)
	if err != nil {
		return nil, err
	}
	codes := make([]int, len(rawCodes))
	for i, v := range rawCodes {
		code, ok := toInt(v)
		if !ok {
			return nil, goerr.New(fmt.Sprintf("biotope code must be a whole number in cell %s",
				xlsx.CellName(codeCol, headerRowIdx+1+i)))
		}
		codes[i] = code
	}

	nameRowIdx := rowHeaders[model.NameParam]

	var sets []*model.ParameterSet
	col := headerCol + 1
	for col < width && !cellEmpty(cellAt(rows, headerRowIdx, col)) {
		params := map[string]any{}
		for name, rowIdx := range rowHeaders {
			v := cellAt(rows, rowIdx, col)
			if cellFalsy(v) {
				return nil, goerr.New(fmt.Sprintf("expected %s value in cell %s",
					name, xlsx.CellName(col, rowIdx)))
			}
			params[name] = v
		}

		columns := map[string][]float64{}
		for col < width && !cellEmpty(cellAt(rows, headerRowIdx, col)) {
			values, err := columnValues(rows, col, headerRowIdx+1, len(codes))
			if err != nil {
				return nil, err
			}
			nums, err := toFloats(values, col, headerRowIdx+1)
			if err != nil {
				return nil, err
			}
			columns[cellString(cellAt(rows, headerRowIdx, col))] = nums
			col++
			if col >= width || !cellEmpty(cellAt(rows, nameRowIdx, col)) {
				break
			}
		}

		set := &model.ParameterSet{Parameters: params, Columns: columns}
		requiredColumns := [][]string{{model.QualityColumn}, model.SourceColumns, {model.FrictionColumn}}
		for _, aliases := range requiredColumns {
			if _, err := set.Column(aliases...); err != nil {
				if len(aliases) == 1 {
					return nil, goerr.New(fmt.Sprintf("column %q not found for network %q",
						aliases[0], set.Name()))
				}
				return nil, goerr.New(fmt.Sprintf(
					"none of the following columns were found for network %q: %q",
					set.Name(), strings.Join(aliases, `", "`)))
			}
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, goerr.New("no parameter sets found in table")
	}

	return &model.BatchParameters{BiotopeCodes: codes, Sets: sets}, nil
}

func columnValues(rows [][]any, col, firstRow, count int) ([]any, error) {
	values := make([]any, 0, count)
	for i := 0; i < count; i++ {
		v := cellAt(rows, firstRow+i, col)
		if cellEmpty(v) {
			return nil, goerr.New(fmt.Sprintf("value expected in cell %s",
				xlsx.CellName(col, firstRow+i)))
		}
		values = append(values, v)
	}
	return values, nil
}

func toFloats(values []any, col, firstRow int) ([]float64, error) {
	nums := make([]float64, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int64:
			nums[i] = float64(n)
		case float64:
			nums[i] = n
		default:
			return nil, goerr.New(fmt.Sprintf("numeric value expected in cell %s",
				xlsx.CellName(col, firstRow+i)))
		}
	}
	return nums, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func cellAt(rows [][]any, row, col int) any {
	if row < 0 || row >= len(rows) {
		return nil
	}
	r := rows[row]
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// cellEmpty reports a blank cell; numeric zero counts as a value.
func cellEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// cellFalsy additionally rejects zero, the rule for the scalar
// parameter rows where zero is never a valid setting.
func cellFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case int64:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	}
	return false
}

func cellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}

func findRowHeader(headers map[string]int, aliases []string) (int, bool) {
	for _, name := range aliases {
		if row, ok := headers[name]; ok {
			return row, true
		}
	}
	return 0, false
}

type yamlNetwork struct {
	Name              string    `yaml:"name"`
	DispersalDistance float64   `yaml:"dispersal_distance"`
	NetworkThreshold  float64   `yaml:"network_threshold"`
	Quality           []float64 `yaml:"quality"`
	Source            []float64 `yaml:"source"`
	Friction          []float64 `yaml:"friction"`
}

type yamlTable struct {
	BiotopeCodes []int         `yaml:"biotope_codes"`
	Networks     []yamlNetwork `yaml:"networks"`
}

func loadParameterYAML(ctx context.Context, path string) (*model.BatchParameters, error) {
	logger := ctxlog.From(ctx)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read parameter table", goerr.V("path", path))
	}

	var table yamlTable
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&table); err != nil {
		return nil, goerr.Wrap(err, "failed to parse parameter table", goerr.V("path", path))
	}

	if len(table.BiotopeCodes) == 0 {
		return nil, goerr.New("biotope_codes is empty", goerr.V("path", path))
	}
	if len(table.Networks) == 0 {
		return nil, goerr.New("networks is empty", goerr.V("path", path))
	}

	sets := make([]*model.ParameterSet, 0, len(table.Networks))
	for _, n := range table.Networks {
		if n.Name == "" {
			return nil, goerr.New("network name is required", goerr.V("path", path))
		}
		byName := map[string][]float64{
			model.QualityColumn:    n.Quality,
			model.SourceColumns[0]: n.Source,
			model.FrictionColumn:   n.Friction,
		}
		for colName, col := range byName {
			if len(col) != len(table.BiotopeCodes) {
				return nil, goerr.New("column length does not match biotope_codes",
					goerr.V("network", n.Name), goerr.V("column", colName),
					goerr.V("expected", len(table.BiotopeCodes)), goerr.V("actual", len(col)))
			}
		}

		sets = append(sets, &model.ParameterSet{
			Parameters: map[string]any{
				model.NameParam:          n.Name,
				model.DispersalParam:     n.DispersalDistance,
				model.ThresholdParams[0]: n.NetworkThreshold,
			},
			Columns: byName,
		})
	}

	logger.Info("Loaded parameter table",
		"path", path,
		"biotope_codes", len(table.BiotopeCodes),
		"networks", len(sets),
	)
	return &model.BatchParameters{BiotopeCodes: table.BiotopeCodes, Sets: sets}, nil
}
