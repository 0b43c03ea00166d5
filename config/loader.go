package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LoadAppConfig loads and validates the application configuration. An empty
// path falls back to the default config.yml candidates. Absent sections keep
// their zero values; the consuming constructors apply defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	paths := []string{"config.yml", "./config/config.yml"}
	if path != "" {
		paths = []string{path}
	}

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
