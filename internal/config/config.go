package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SimulatorConfig holds configuration for the swap-flow simulator.
type SimulatorConfig struct {
	Seed     int64
	Swaps    int
	Markets  int
	MaxIn    uint64
	Out      string
	LogLevel string
}

// LoadSimulator merges config file, environment variables, and flags.
func LoadSimulator(cfgFile string, flags *pflag.FlagSet) (SimulatorConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("FEELS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("seed", 1)
	v.SetDefault("swaps", 1000)
	v.SetDefault("markets", 3)
	v.SetDefault("max-in", 1_000_000)
	v.SetDefault("out", "./data/swaps.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return SimulatorConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return SimulatorConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return SimulatorConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := SimulatorConfig{
		Seed:     v.GetInt64("seed"),
		Swaps:    v.GetInt("swaps"),
		Markets:  v.GetInt("markets"),
		MaxIn:    v.GetUint64("max-in"),
		Out:      v.GetString("out"),
		LogLevel: v.GetString("log-level"),
	}

	if cfg.Swaps <= 0 {
		return SimulatorConfig{}, fmt.Errorf("swaps must be positive")
	}
	if cfg.Markets <= 0 {
		return SimulatorConfig{}, fmt.Errorf("markets must be positive")
	}
	if cfg.MaxIn == 0 {
		return SimulatorConfig{}, fmt.Errorf("max-in must be positive")
	}
	return cfg, nil
}
