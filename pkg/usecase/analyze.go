package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/psteco/hnat/pkg/domain/interfaces"
	"github.com/psteco/hnat/pkg/domain/model"
	"github.com/psteco/hnat/pkg/infra/raster"
	"github.com/psteco/hnat/pkg/utils/async"
)

type analyzeUseCase struct {
	notifier interfaces.Notifier
	now      func() time.Time
	newID    func() string
}

type AnalyzeOption func(*analyzeUseCase)

// WithNotifier sends a completion message after each run. Notification
// failures are logged, never fatal.
func WithNotifier(notifier interfaces.Notifier) AnalyzeOption {
	return func(uc *analyzeUseCase) {
		uc.notifier = notifier
	}
}

// WithRunID overrides run ID generation.
func WithRunID(newID func() string) AnalyzeOption {
	return func(uc *analyzeUseCase) {
		uc.newID = newID
	}
}

// NewAnalyze creates the habitat network analysis use case.
func NewAnalyze(options ...AnalyzeOption) interfaces.AnalyzeUseCase {
	uc := &analyzeUseCase{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range options {
		opt(uc)
	}
	return uc
}

// Run executes the full batch: one set of six raster layers per network
// in the parameter table, written under OutputDir/<network name>/, plus
// a JSON run report in OutputDir itself.
func (uc *analyzeUseCase) Run(ctx context.Context, req *model.AnalysisRequest) (*model.RunReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.From(ctx)

	biotope, err := raster.Read(req.BiotopeRaster)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load biotope raster", goerr.V("path", req.BiotopeRaster))
	}
	logger.Info("Loaded biotope raster",
		"path", req.BiotopeRaster,
		"width", biotope.Width,
		"height", biotope.Height,
		"cell_size", biotope.CellSize,
	)

	batch, err := LoadParameterTable(ctx, req.ParameterTable)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(batch.Sets))
	for i, set := range batch.Sets {
		names[i] = set.Name()
	}
	logger.Info("Found parameter sets", "count", len(batch.Sets), "networks", names)

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create output directory", goerr.V("dir", req.OutputDir))
	}

	report := &model.RunReport{
		ID:             uc.newID(),
		StartedAt:      uc.now(),
		BiotopeRaster:  req.BiotopeRaster,
		ParameterTable: req.ParameterTable,
		OutputDir:      req.OutputDir,
	}

	networks, err := uc.runNetworks(ctx, req, biotope, batch)
	if err != nil {
		return nil, err
	}
	report.Networks = networks
	report.FinishedAt = uc.now()

	if err := writeRunReport(report); err != nil {
		return nil, err
	}
	logger.Info("Analysis finished",
		"run_id", report.ID,
		"networks", len(report.Networks),
		"duration", report.Duration().String(),
	)

	if uc.notifier != nil {
		// The run context may be close to its deadline by now. The
		// message goes out on a detached context and we wait for it so
		// a CLI run cannot exit with the send still in flight.
		notification := runNotification(report, names)
		<-async.Dispatch(ctx, "notify", func(ctx context.Context) error {
			return uc.notifier.Notify(ctx, notification)
		})
	}
	return report, nil
}

func (uc *analyzeUseCase) runNetworks(ctx context.Context, req *model.AnalysisRequest, biotope *model.Raster, batch *model.BatchParameters) ([]model.NetworkReport, error) {
	if req.Workers <= 1 || len(batch.Sets) == 1 {
		var networks []model.NetworkReport
		for _, set := range batch.Sets {
			network, err := uc.runNetwork(ctx, req, biotope, batch.BiotopeCodes, set)
			if err != nil {
				return nil, goerr.Wrap(err, "network analysis failed", goerr.V("network", set.Name()))
			}
			networks = append(networks, network)
		}
		return networks, nil
	}

	// Networks are independent: same inputs, disjoint output
	// directories. Bound the fan-out by the worker count.
	networks := make([]model.NetworkReport, len(batch.Sets))
	errs := make([]error, len(batch.Sets))
	sem := make(chan struct{}, req.Workers)
	var wg sync.WaitGroup
	for i, set := range batch.Sets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			networks[i], errs[i] = uc.runNetwork(ctx, req, biotope, batch.BiotopeCodes, set)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, goerr.Wrap(err, "network analysis failed", goerr.V("network", batch.Sets[i].Name()))
		}
	}
	return networks, nil
}

func (uc *analyzeUseCase) runNetwork(ctx context.Context, req *model.AnalysisRequest, biotope *model.Raster, codes []int, set *model.ParameterSet) (model.NetworkReport, error) {
	logger := ctxlog.From(ctx)
	name := set.Name()

	dispersalDistance, err := set.DispersalDistance()
	if err != nil {
		return model.NetworkReport{}, err
	}
	threshold, err := set.NetworkThreshold()
	if err != nil {
		return model.NetworkReport{}, err
	}
	maxCost, err := model.MaxCostDistance(dispersalDistance, threshold)
	if err != nil {
		return model.NetworkReport{}, err
	}

	sourceValues, err := set.Column(model.SourceColumns...)
	if err != nil {
		return model.NetworkReport{}, err
	}
	frictionValues, err := set.Column(model.FrictionColumn)
	if err != nil {
		return model.NetworkReport{}, err
	}
	qualityValues, err := set.Column(model.QualityColumn)
	if err != nil {
		return model.NetworkReport{}, err
	}

	logger.Info("Processing network",
		"network", name,
		"dispersal_distance_m", dispersalDistance,
		"network_threshold", threshold,
		"max_cost_distance_m", maxCost,
	)

	source, err := model.MapCodes(biotope, codes, sourceValues, func(v float64) bool { return v == 1 }, 0)
	if err != nil {
		return model.NetworkReport{}, err
	}
	friction, err := model.MapCodes(biotope, codes, frictionValues, func(v float64) bool { return v > 0 }, -1)
	if err != nil {
		return model.NetworkReport{}, err
	}
	quality, err := model.MapCodes(biotope, codes, qualityValues, func(v float64) bool { return v > 0 }, 255)
	if err != nil {
		return model.NetworkReport{}, err
	}

	cost, err := model.CostDistance(ctx, friction, source, model.CostDistanceOptions{
		MaxCost:    maxCost,
		KnightMove: req.KnightMove,
	})
	if err != nil {
		return model.NetworkReport{}, err
	}
	dispersal, err := model.DispersalProbability(cost, dispersalDistance)
	if err != nil {
		return model.NetworkReport{}, err
	}
	functionality, err := model.Functionality(dispersal, quality)
	if err != nil {
		return model.NetworkReport{}, err
	}

	layers := []model.Layer{
		{Title: "Source Raster", Raster: source, Depth: model.DepthByte, Ramp: model.RampYellowBlue},
		{Title: "Friction Raster", Raster: friction, Depth: model.DepthFloat32, Ramp: model.RampYellowRed},
		{Title: "Quality Raster", Raster: quality, Depth: model.DepthByte, Ramp: model.RampYellowBlue},
		{Title: fmt.Sprintf("Cost-Distance Raster max%dm", int(maxCost)), Raster: cost, Depth: model.DepthFloat32, Ramp: model.RampGreenYellowRed, RampMax: maxCost},
		{Title: "Dispersal Raster", Raster: dispersal, Depth: model.DepthFloat32, Ramp: model.RampRedYellowGreen, RampMax: 1},
		{Title: "Functionality Raster", Raster: functionality, Depth: model.DepthFloat32, Ramp: model.RampBlueGreenYellowRed},
	}

	network := model.NetworkReport{
		Name:              name,
		DispersalDistance: dispersalDistance,
		NetworkThreshold:  threshold,
		MaxCostDistance:   maxCost,
	}

	dir := filepath.Join(req.OutputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return model.NetworkReport{}, goerr.Wrap(err, "failed to create network directory", goerr.V("dir", dir))
	}

	for _, layer := range layers {
		path := filepath.Join(dir, fmt.Sprintf("%s - %s%s", name, layer.Title, req.Format.Ext()))
		if err := raster.Write(path, layer.Raster, layer.Depth, req.Format); err != nil {
			return model.NetworkReport{}, err
		}
		logger.Info("Wrote layer", "network", name, "layer", layer.Title, "path", path)

		entry := model.LayerReport{Title: layer.Title, Path: path}
		if min, max, ok := layer.Raster.MinMax(); ok {
			entry.Min, entry.Max = min, max
		}
		if req.Previews {
			preview := strings.TrimSuffix(path, req.Format.Ext()) + ".png"
			if err := raster.RenderPNG(preview, &layer); err != nil {
				return model.NetworkReport{}, err
			}
			entry.Preview = preview
		}
		network.Layers = append(network.Layers, entry)
	}
	return network, nil
}

func writeRunReport(report *model.RunReport) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode run report")
	}
	path := filepath.Join(report.OutputDir, fmt.Sprintf("%s%s.json", model.RunReportPrefix, report.ID))
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return goerr.Wrap(err, "failed to write run report", goerr.V("path", path))
	}
	return nil
}

func runNotification(report *model.RunReport, names []string) *model.Notification {
	return &model.Notification{
		Title: "Habitat network analysis finished",
		Text:  fmt.Sprintf("Run %s produced %d network(s)", report.ID, len(report.Networks)),
		Fields: []model.NotificationField{
			{Label: "Networks", Value: strings.Join(names, ", ")},
			{Label: "Output", Value: report.OutputDir},
			{Label: "Duration", Value: report.Duration().Round(time.Millisecond).String()},
		},
	}
}
