package config

import "github.com/urfave/cli/v3"

// Server holds result server configuration
type Server struct {
	Addr    string
	DataDir string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("HNAT_ADDR"),
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory holding analysis outputs and run reports",
			Value:       ".",
			Destination: &c.DataDir,
			Sources:     cli.EnvVars("HNAT_DATA_DIR"),
		},
	}
}
