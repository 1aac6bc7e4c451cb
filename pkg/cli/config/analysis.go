package config

import (
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Analysis holds the inputs of one batch analysis run
type Analysis struct {
	BiotopeRaster  string
	ParameterTable string
	OutputDir      string
	Format         string
	Previews       bool
	KnightMove     bool
	Workers        int
}

// Flags returns CLI flags for analysis configuration
func (c *Analysis) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "biotope",
			Aliases:     []string{"b"},
			Usage:       "Biotope code raster (.tif or .asc)",
			Required:    true,
			Destination: &c.BiotopeRaster,
			Sources:     cli.EnvVars("HNAT_BIOTOPE"),
		},
		&cli.StringFlag{
			Name:        "parameters",
			Aliases:     []string{"p"},
			Usage:       "Network parameter table (.xlsx or .yaml)",
			Required:    true,
			Destination: &c.ParameterTable,
			Sources:     cli.EnvVars("HNAT_PARAMETERS"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output directory, one subdirectory per network",
			Required:    true,
			Destination: &c.OutputDir,
			Sources:     cli.EnvVars("HNAT_OUTPUT"),
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Output raster format (tif, asc)",
			Value:       string(model.FormatGeoTIFF),
			Destination: &c.Format,
			Sources:     cli.EnvVars("HNAT_FORMAT"),
		},
		&cli.BoolFlag{
			Name:        "previews",
			Usage:       "Render a PNG preview next to each output raster",
			Destination: &c.Previews,
			Sources:     cli.EnvVars("HNAT_PREVIEWS"),
		},
		&cli.BoolFlag{
			Name:        "knight-move",
			Usage:       "Let cost distance spread with knight moves as well",
			Destination: &c.KnightMove,
			Sources:     cli.EnvVars("HNAT_KNIGHT_MOVE"),
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of networks processed in parallel",
			Value:       runtime.NumCPU(),
			Destination: &c.Workers,
			Sources:     cli.EnvVars("HNAT_WORKERS"),
		},
	}
}

// Request builds the analysis request.
func (c *Analysis) Request() *model.AnalysisRequest {
	return &model.AnalysisRequest{
		BiotopeRaster:  c.BiotopeRaster,
		ParameterTable: c.ParameterTable,
		OutputDir:      c.OutputDir,
		Format:         model.RasterFormat(c.Format),
		Previews:       c.Previews,
		KnightMove:     c.KnightMove,
		Workers:        c.Workers,
	}
}
