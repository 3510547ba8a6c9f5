package env

import (
	"fmt"

	"github.com/spf13/viper"
)

// ConfigName is the base name of the optional config file, searched in
// ConfigPaths with any extension viper understands (toml, yaml, json).
const ConfigName = "sensorlink"

// ConfigPaths are searched in order for ConfigName.
var ConfigPaths = []string{"/etc/sensorlink", "."}

// LoadConfigFile reads a config file and unmarshals each named section
// over the matching target, so values absent from the file keep their
// defaults. An empty path searches ConfigPaths and a missing file is
// not an error.
func LoadConfigFile(path string, sections map[string]interface{}) (string, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		for _, dir := range ConfigPaths {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	for name, target := range sections {
		if !v.IsSet(name) {
			continue
		}
		if err := v.UnmarshalKey(name, target); err != nil {
			return v.ConfigFileUsed(), fmt.Errorf("config section %q: %w", name, err)
		}
	}
	return v.ConfigFileUsed(), nil
}
