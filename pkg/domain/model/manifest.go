package model

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// Manifest describes a plugin repository: which files make up the
// plugin and where staged and packaged artifacts go. It is read from
// an hnat.toml at the repository root; relative paths resolve against
// the manifest's directory.
type Manifest struct {
	Plugin  PluginSection  `toml:"plugin"`
	Deploy  DeploySection  `toml:"deploy"`
	Package PackageSection `toml:"package"`

	// BaseDir is the directory the manifest was loaded from.
	BaseDir string `toml:"-"`
}

type PluginSection struct {
	// Title is the plugin identifier: the staging directory name, the
	// ZIP top-level folder and the archive name prefix.
	Title string `toml:"title"`

	// SourceDir holds the plugin's Python sources.
	SourceDir string `toml:"source_dir"`

	// Metadata is the QGIS plugin metadata file.
	Metadata string `toml:"metadata"`

	// Docs lists documentation files shipped inside the plugin.
	Docs []string `toml:"docs"`
}

type DeploySection struct {
	// TargetDir is where the plugin files are staged, one
	// subdirectory per plugin title.
	TargetDir string `toml:"target_dir"`
}

type PackageSection struct {
	// DistDir is where distributable ZIP archives are written.
	DistDir string `toml:"dist_dir"`
}

// LoadManifest reads and validates an hnat.toml. Unknown keys are
// rejected so typos surface instead of silently falling back to
// defaults.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read manifest", goerr.V("path", path))
	}

	var m Manifest
	dec := toml.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, goerr.Wrap(err, "failed to parse manifest", goerr.V("path", path))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve manifest path", goerr.V("path", path))
	}
	m.BaseDir = filepath.Dir(abs)

	if m.Plugin.Metadata == "" {
		m.Plugin.Metadata = "metadata.txt"
	}
	if m.Deploy.TargetDir == "" {
		m.Deploy.TargetDir = "deploy"
	}
	if m.Package.DistDir == "" {
		m.Package.DistDir = "."
	}

	if err := m.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid manifest", goerr.V("path", path))
	}
	return &m, nil
}

// Validate checks the fields a release pipeline cannot run without.
func (m *Manifest) Validate() error {
	if m.Plugin.Title == "" {
		return goerr.New("plugin.title is required")
	}
	if strings.ContainsAny(m.Plugin.Title, `/\`) {
		return goerr.New("plugin.title must not contain path separators",
			goerr.V("title", m.Plugin.Title))
	}
	if m.Plugin.SourceDir == "" {
		return goerr.New("plugin.source_dir is required")
	}
	return nil
}

// Resolve turns a manifest-relative path into an absolute one.
// Absolute paths pass through unchanged.
func (m *Manifest) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.BaseDir, path)
}

// StageDir is the per-plugin staging directory under the deploy target.
func (m *Manifest) StageDir() string {
	return filepath.Join(m.Resolve(m.Deploy.TargetDir), m.Plugin.Title)
}
