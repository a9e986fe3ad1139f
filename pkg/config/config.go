// Package config provides a reusable loader for Legion's configuration
// files and environment variables, adapted from the teacher's
// pkg/config/config.go: viper reads a YAML base file, merges an optional
// environment overlay, then AutomaticEnv lets deployment-specific
// environment variables win.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"legion/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a legiond node.
type Config struct {
	Server struct {
		ListenAddr      string  `mapstructure:"listen_addr" json:"listen_addr"`
		AdminAddr       string  `mapstructure:"admin_addr" json:"admin_addr"`
		FramesPerSecond float64 `mapstructure:"frames_per_second" json:"frames_per_second"`
		MaxConcurrency  int     `mapstructure:"max_concurrency" json:"max_concurrency"`
	} `mapstructure:"server" json:"server"`

	World struct {
		TickIntervalMS  int `mapstructure:"tick_interval_ms" json:"tick_interval_ms"`
		WorkersPerChunk int `mapstructure:"workers_per_chunk" json:"workers_per_chunk"`
	} `mapstructure:"world" json:"world"`

	Save struct {
		Path      string `mapstructure:"path" json:"path"`
		RingBytes int    `mapstructure:"ring_bytes" json:"ring_bytes"`
		PageCache int    `mapstructure:"page_cache_entries" json:"page_cache_entries"`
	} `mapstructure:"save" json:"save"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the LEGION_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("LEGION_ENV", ""))
}

// Defaults returns a Config populated with sane standalone values, used
// when no config file is present (e.g. `legiond serve` run with no
// -config flag).
func Defaults() Config {
	var c Config
	c.Server.ListenAddr = ":7777"
	c.Server.AdminAddr = ":7778"
	c.Server.FramesPerSecond = 20
	c.Server.MaxConcurrency = 8
	c.World.TickIntervalMS = 100
	c.World.WorkersPerChunk = 4
	c.Save.Path = "legion.save"
	c.Save.RingBytes = 1 << 20
	c.Save.PageCache = 256
	c.Logging.Level = "info"
	return c
}
