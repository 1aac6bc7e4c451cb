package usecase_test

import (
	"context"
	"encoding/json"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/psteco/hnat/pkg/domain/model"
	"github.com/psteco/hnat/pkg/infra/raster"
	"github.com/psteco/hnat/pkg/usecase"
)

type captureNotifier struct {
	last *model.Notification
}

func (n *captureNotifier) Notify(_ context.Context, msg *model.Notification) error {
	n.last = msg
	return nil
}

// writeAnalysisFixture lays out a 4x1 biotope strip with a NoData gap
// at cell 2 and a two network parameter table:
//
//	biotope:  110  220  ----  220
//
// Woodland sources from 110, Grassland from 220, both crossing uniform
// friction 1 over 10 m cells.
func writeAnalysisFixture(t *testing.T, dir string) (string, string) {
	t.Helper()

	biotope := model.NewRaster(4, 1, 10, 0, 0, -9999)
	copy(biotope.Cells, []float64{110, 220, -9999, 220})
	biotopePath := filepath.Join(dir, "biotope.asc")
	gt.NoError(t, raster.Write(biotopePath, biotope, model.DepthFloat32, model.FormatASCIIGrid))

	tablePath := filepath.Join(dir, "networks.yaml")
	table := `
biotope_codes: [110, 220]
networks:
  - name: Woodland
    dispersal_distance: 100
    network_threshold: 0.05
    quality: [7, 0]
    source: [1, 0]
    friction: [1, 1]
  - name: Grassland
    dispersal_distance: 50
    network_threshold: 0.1
    quality: [0, 5]
    source: [0, 1]
    friction: [1, 1]
`
	gt.NoError(t, os.WriteFile(tablePath, []byte(table), 0644))
	return biotopePath, tablePath
}

func TestAnalyzeRun(t *testing.T) {
	dir := t.TempDir()
	biotopePath, tablePath := writeAnalysisFixture(t, dir)
	outDir := filepath.Join(dir, "out")

	notifier := &captureNotifier{}
	uc := usecase.NewAnalyze(
		usecase.WithNotifier(notifier),
		usecase.WithRunID(func() string { return "test-run" }),
	)

	report, err := uc.Run(context.Background(), &model.AnalysisRequest{
		BiotopeRaster:  biotopePath,
		ParameterTable: tablePath,
		OutputDir:      outDir,
		Format:         model.FormatASCIIGrid,
		Previews:       true,
		Workers:        2,
	})
	gt.NoError(t, err)
	gt.NotNil(t, report)
	gt.Equal(t, report.ID, "test-run")
	gt.Number(t, len(report.Networks)).Equal(2)

	wood := report.Networks[0]
	gt.Equal(t, wood.Name, "Woodland")
	gt.Equal(t, wood.MaxCostDistance, math.Ceil(-100*math.Log(0.05)))
	gt.Number(t, len(wood.Layers)).Equal(6)

	titles := make([]string, len(wood.Layers))
	for i, layer := range wood.Layers {
		titles[i] = layer.Title
	}
	gt.Equal(t, titles, []string{
		"Source Raster",
		"Friction Raster",
		"Quality Raster",
		"Cost-Distance Raster max300m",
		"Dispersal Raster",
		"Functionality Raster",
	})

	t.Run("cost distance spreads from the source", func(t *testing.T) {
		cost, err := raster.Read(filepath.Join(outDir, "Woodland", "Woodland - Cost-Distance Raster max300m.asc"))
		gt.NoError(t, err)
		gt.Equal(t, cost.NoData, -1.0)
		// cell 2 is a friction barrier, cell 3 is cut off behind it
		gt.Equal(t, cost.Cells, []float64{0, 10, -1, -1})
		gt.Equal(t, wood.Layers[3].Min, 0.0)
		gt.Equal(t, wood.Layers[3].Max, 10.0)
	})

	t.Run("dispersal probability decays with cost", func(t *testing.T) {
		dispersal, err := raster.Read(filepath.Join(outDir, "Woodland", "Woodland - Dispersal Raster.asc"))
		gt.NoError(t, err)
		gt.Equal(t, dispersal.Cells, []float64{1, math.Exp(-10.0 / 100.0), 0, 0})
	})

	t.Run("functionality is gapless", func(t *testing.T) {
		functionality, err := raster.Read(filepath.Join(outDir, "Woodland", "Woodland - Functionality Raster.asc"))
		gt.NoError(t, err)
		gt.Equal(t, functionality.Cells, []float64{7, 0, 0, 0})
	})

	t.Run("second network runs from its own sources", func(t *testing.T) {
		grass := report.Networks[1]
		gt.Equal(t, grass.Name, "Grassland")
		gt.Equal(t, grass.MaxCostDistance, math.Ceil(-50*math.Log(0.1)))

		cost, err := raster.Read(filepath.Join(outDir, "Grassland", "Grassland - Cost-Distance Raster max116m.asc"))
		gt.NoError(t, err)
		gt.Equal(t, cost.Cells, []float64{10, 0, -1, 0})

		functionality, err := raster.Read(filepath.Join(outDir, "Grassland", "Grassland - Functionality Raster.asc"))
		gt.NoError(t, err)
		gt.Equal(t, functionality.Cells, []float64{0, 5, 0, 5})
	})

	t.Run("previews are written", func(t *testing.T) {
		gt.String(t, wood.Layers[3].Preview).Contains("Woodland - Cost-Distance Raster max300m.png")
		f, err := os.Open(wood.Layers[3].Preview)
		gt.NoError(t, err)
		defer f.Close()
		img, err := png.Decode(f)
		gt.NoError(t, err)
		gt.Equal(t, img.Bounds().Dx(), 4)
		gt.Equal(t, img.Bounds().Dy(), 1)

		_, _, _, a := img.At(0, 0).RGBA()
		gt.True(t, a > 0)
		_, _, _, a = img.At(3, 0).RGBA()
		gt.Equal(t, a, uint32(0))
	})

	t.Run("report file matches the returned report", func(t *testing.T) {
		raw, err := os.ReadFile(filepath.Join(outDir, "hnat_run_test-run.json"))
		gt.NoError(t, err)
		var stored model.RunReport
		gt.NoError(t, json.Unmarshal(raw, &stored))
		gt.Equal(t, stored.ID, report.ID)
		gt.Number(t, len(stored.Networks)).Equal(2)
		gt.Equal(t, stored.Networks[0].Name, "Woodland")
	})

	t.Run("notification is sent", func(t *testing.T) {
		gt.NotNil(t, notifier.last)
		gt.Equal(t, notifier.last.Title, "Habitat network analysis finished")
		gt.Equal(t, notifier.last.Fields[0].Value, "Woodland, Grassland")
	})
}

func TestAnalyzeRunValidation(t *testing.T) {
	uc := usecase.NewAnalyze()

	_, err := uc.Run(context.Background(), &model.AnalysisRequest{
		ParameterTable: "networks.yaml",
		OutputDir:      "out",
		Format:         model.FormatGeoTIFF,
		Workers:        1,
	})
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("biotope raster path is required")
}

func TestAnalyzeRunMissingBiotope(t *testing.T) {
	dir := t.TempDir()
	_, tablePath := writeAnalysisFixture(t, dir)

	uc := usecase.NewAnalyze()
	_, err := uc.Run(context.Background(), &model.AnalysisRequest{
		BiotopeRaster:  filepath.Join(dir, "missing.asc"),
		ParameterTable: tablePath,
		OutputDir:      filepath.Join(dir, "out"),
		Format:         model.FormatASCIIGrid,
		Workers:        1,
	})
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("failed to load biotope raster")
}
