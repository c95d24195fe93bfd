// Package config loads the settings shared by the glubcms commands from
// flags, environment (GLUBCMS_*) and an optional glubcms.yaml.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "GLUBCMS"
	FileName  = "glubcms"
)

type Config struct {
	Prefix  string        `mapstructure:"prefix"`
	Git     bool          `mapstructure:"git"`
	Branch  string        `mapstructure:"branch"`
	Bind    string        `mapstructure:"bind"`
	Net     string        `mapstructure:"net"`
	BaseURL string        `mapstructure:"base_url"`
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("prefix", ".")
	v.SetDefault("git", false)
	v.SetDefault("branch", "master")
	v.SetDefault("bind", "localhost:8080")
	v.SetDefault("net", "tcp")
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("debug", false)
}

// Load merges, from lowest to highest precedence: defaults, the config
// file, the environment and flags that were set explicitly. Flags are
// bound by name with dashes read as underscores, so --base-url sets
// base_url. An empty file searches glubcms.yaml in the working
// directory; a missing file is only an error if it was named.
func Load(flags *pflag.FlagSet, file string) (Config, string, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var err error
		flags.VisitAll(func(f *pflag.Flag) {
			if err != nil {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "config" {
				return
			}
			err = v.BindPFlag(key, f)
		})
		if err != nil {
			return Config{}, "", errors.Wrap(err, "binding flags")
		}
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return Config{}, "", errors.Wrap(err, "failed to read config file")
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, "", errors.Wrap(err, "unable to decode config into struct")
	}
	return c, used, nil
}
