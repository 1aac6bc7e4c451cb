package model

import (
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/ini.v1"
)

// PluginMetadata is the QGIS plugin descriptor parsed from
// metadata.txt. Only the [general] section matters; QGIS refuses to
// install a plugin whose name or version is missing.
type PluginMetadata struct {
	Name               string
	Version            string
	Description        string
	QGISMinimumVersion string
}

// ParsePluginMetadata parses metadata.txt content.
func ParsePluginMetadata(data []byte) (*PluginMetadata, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse plugin metadata")
	}

	sec := f.Section("general")
	meta := &PluginMetadata{
		Name:               sec.Key("name").String(),
		Version:            sec.Key("version").String(),
		Description:        sec.Key("description").String(),
		QGISMinimumVersion: sec.Key("qgisMinimumVersion").String(),
	}

	if meta.Name == "" {
		return nil, goerr.New("plugin metadata has no name", goerr.V("section", "general"))
	}
	if meta.Version == "" {
		return nil, goerr.New("plugin metadata has no version", goerr.V("section", "general"))
	}
	return meta, nil
}
