package config

import (
	"github.com/urfave/cli/v3"

	"github.com/psteco/hnat/pkg/domain/model"
)

// Release holds the plugin release manifest location
type Release struct {
	ManifestPath string
}

// Flags returns CLI flags for release configuration
func (c *Release) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "manifest",
			Aliases:     []string{"m"},
			Usage:       "Path to the release manifest",
			Value:       "hnat.toml",
			Destination: &c.ManifestPath,
			Sources:     cli.EnvVars("HNAT_MANIFEST"),
		},
	}
}

// Load reads and validates the manifest.
func (c *Release) Load() (*model.Manifest, error) {
	return model.LoadManifest(c.ManifestPath)
}
