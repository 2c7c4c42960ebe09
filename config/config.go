// Package config loads application settings from a config file,
// environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"flag"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	v *viper.Viper
}

func New() *Config {
	v := viper.New()
	v.SetDefault("debug", false)
	v.SetDefault("threads", 0) // 0 means all CPUs
	v.SetDefault("mc-iterations", 200_000)
	v.SetDefault("mc-seed", uint64(1))
	v.SetDefault("mc-tolerance", 0.5)
	v.SetDefault("scenario", "")
	v.SetDefault("csv", "")
	v.SetDefault("history-file", "/tmp/triad_readline.tmp")

	v.SetEnvPrefix("TRIAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("triad")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/triad")
	return &Config{v: v}
}

// Load reads the optional config file and applies flag overrides.
func (c *Config) Load(args []string) error {
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	fs := flag.NewFlagSet("triad", flag.ContinueOnError)
	fs.Bool("debug", c.v.GetBool("debug"), "enable debug logging")
	fs.Int("threads", c.v.GetInt("threads"), "workers for parallel search and simulation; 0 uses all CPUs")
	fs.Int("mc-iterations", c.v.GetInt("mc-iterations"), "monte carlo draws per cross-check")
	fs.Uint64("mc-seed", c.v.GetUint64("mc-seed"), "monte carlo random seed")
	fs.Float64("mc-tolerance", c.v.GetFloat64("mc-tolerance"), "allowed |analytic - estimate|")
	fs.String("scenario", c.v.GetString("scenario"), "scenario yaml to load at startup")
	fs.String("csv", c.v.GetString("csv"), "probabilities csv to load at startup")
	fs.String("history-file", c.v.GetString("history-file"), "readline history file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		c.v.Set(f.Name, f.Value.(flag.Getter).Get())
	})
	return nil
}

func (c *Config) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Config) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Config) GetUint64(key string) uint64   { return c.v.GetUint64(key) }
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }
func (c *Config) GetString(key string) string   { return c.v.GetString(key) }

// Set overrides a setting at runtime (shell `set` command).
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// AllSettings returns the effective settings for display.
func (c *Config) AllSettings() map[string]any {
	return c.v.AllSettings()
}
