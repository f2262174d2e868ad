// Package config loads ambient pipeline defaults (concurrency,
// backoff, retry allow-list, sampling rate, log level) from a config
// file, environment variables, and an optional .env file. This is
// the only place in the module that touches the filesystem or
// environment — the core engine packages (flow, parallel, retry,
// metrics, pipeline) stay pure and take explicit option structs
// (spec §9). Grounded on kbukum-gokit's viper + godotenv config
// loading.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults holds the pipeline-level defaults a demo CLI wires into
// per-operator option structs.
type Defaults struct {
	Concurrency     int      `mapstructure:"concurrency"`
	Ordered         bool     `mapstructure:"ordered"`
	MaxAttempts     int      `mapstructure:"max_attempts"`
	BackoffMs       int64    `mapstructure:"backoff_ms"`
	RetryableErrors []string `mapstructure:"retryable_errors"`
	SamplingRate    int      `mapstructure:"sampling_rate"`
	LogLevel        string   `mapstructure:"log_level"`
}

func defaults() Defaults {
	return Defaults{
		Concurrency:  4,
		Ordered:      true,
		MaxAttempts:  3,
		BackoffMs:    100,
		SamplingRate: 1,
		LogLevel:     "info",
	}
}

// Load builds Defaults from, in increasing precedence: the built-in
// defaults, a config file named configName (searched in configPaths,
// any viper-supported extension), and FLOWCORE_-prefixed environment
// variables. An optional .env file at envPath is loaded into the
// process environment first, without overriding variables already
// set, so its FLOWCORE_ entries also take precedence over the config
// file.
func Load(configName string, configPaths []string, envPath string) (Defaults, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath) // optional; absence is not an error
	}

	v := viper.New()
	d := defaults()
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("ordered", d.Ordered)
	v.SetDefault("max_attempts", d.MaxAttempts)
	v.SetDefault("backoff_ms", d.BackoffMs)
	v.SetDefault("sampling_rate", d.SamplingRate)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix("FLOWCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configName != "" {
		v.SetConfigName(configName)
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Defaults{}, err
			}
		}
	}

	var out Defaults
	if err := v.Unmarshal(&out); err != nil {
		return Defaults{}, err
	}
	return out, nil
}
