// Package config loads killhouse settings and scenario definitions from an
// optional JSON file via viper. Missing keys fall back to the defaults set
// in Load, so every binary runs without a config file present.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Settings are the service-level knobs shared by the binaries.
type Settings struct {
	LogLevel   string `json:"logLevel" mapstructure:"logLevel"`
	LogJSON    bool   `json:"logJSON" mapstructure:"logJSON"`
	ListenAddr string `json:"listenAddr" mapstructure:"listenAddr"`
	TickRate   int    `json:"tickRate" mapstructure:"tickRate"`

	Recorder RecorderSettings `json:"recorder" mapstructure:"recorder"`
}

// RecorderSettings control the sqlite run recorder.
type RecorderSettings struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// Load reads configuration from a JSON file and sets default values.
// With path empty it looks for killhouse.cfg.json in the working directory;
// otherwise path names the config file directly. A missing file is an
// error the caller may downgrade to a warning and run on defaults.
func Load(path string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logJSON", false)
	viper.SetDefault("listenAddr", ":8080")
	viper.SetDefault("tickRate", 30)

	viper.SetDefault("recorder.enabled", false)
	viper.SetDefault("recorder.path", "killhouse_runs.db")

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("killhouse.cfg.json")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetSettings returns the service settings with defaults applied.
func GetSettings() Settings {
	return Settings{
		LogLevel:   viper.GetString("logLevel"),
		LogJSON:    viper.GetBool("logJSON"),
		ListenAddr: viper.GetString("listenAddr"),
		TickRate:   viper.GetInt("tickRate"),
		Recorder: RecorderSettings{
			Enabled: viper.GetBool("recorder.enabled"),
			Path:    viper.GetString("recorder.path"),
		},
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
