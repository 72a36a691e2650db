package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Section is the configuration file section holding the run parameters.
const Section = "PARAMETERS"

// Settings holds the raw key/value pairs of the PARAMETERS section. Keys are upper case.
type Settings map[string]string

// Get returns the trimmed value of key, or an empty string.
func (s Settings) Get(key string) string {
	return strings.TrimSpace(s[strings.ToUpper(key)])
}

// Load reads the PARAMETERS section of an INI file. Key names are case-insensitive.
func Load(path string) (Settings, error) {
	file, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", path)
	}

	section, err := file.GetSection(Section)
	if err != nil {
		return nil, errors.Wrapf(err, "section %s not found in %s", Section, path)
	}

	settings := make(Settings, len(section.Keys()))
	for _, key := range section.Keys() {
		settings[strings.ToUpper(key.Name())] = key.String()
	}

	return settings, nil
}
