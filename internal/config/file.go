package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/agbru/narrowfind/internal/errors"
)

// FileConfig is the layout of the TOML configuration file. Every value is
// optional.
//
//	[search]
//	group = 5
//	left = 0.0
//	right = 10.0
//	tolerance = 1e-4
//	timeout = "30s"
//	jobs = 4
//
//	[output]
//	quiet = false
//	verbose = true
//	no_color = false
//	theme = "light"
//	file = "search.log"
//
//	[server]
//	addr = ":8080"
//	rate = 10.0
//	history = "runs.db"
//
//	[log]
//	level = "info"
type FileConfig struct {
	Search struct {
		Group     *int     `toml:"group"`
		Left      *float64 `toml:"left"`
		Right     *float64 `toml:"right"`
		Tolerance *float64 `toml:"tolerance"`
		Timeout   *string  `toml:"timeout"`
		Jobs      *int     `toml:"jobs"`
	} `toml:"search"`
	Output struct {
		Quiet   *bool   `toml:"quiet"`
		Verbose *bool   `toml:"verbose"`
		NoColor *bool   `toml:"no_color"`
		Theme   *string `toml:"theme"`
		File    *string `toml:"file"`
	} `toml:"output"`
	Server struct {
		Addr    *string  `toml:"addr"`
		Rate    *float64 `toml:"rate"`
		History *string  `toml:"history"`
	} `toml:"server"`
	Log struct {
		Level *string `toml:"level"`
	} `toml:"log"`
}

// LoadFile decodes a TOML configuration file. Unknown keys are rejected.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, apperrors.NewConfigError("%s: %s", path, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, apperrors.NewConfigError("%s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return nil, apperrors.NewConfigError("%s: %v", path, err)
	}
	return &fc, nil
}

// applyFileConfig loads the configuration file named by --config, or
// DefaultConfigFile when it exists, and applies it to every flag that was
// not set on the command line.
func applyFileConfig(config *AppConfig, fs *flag.FlagSet) error {
	path := config.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	explicit := path != ""
	if !explicit {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return nil
		}
		path = DefaultConfigFile
	}

	fc, err := LoadFile(path)
	if err != nil {
		var configErr apperrors.ConfigError
		if errors.As(err, &configErr) {
			return err
		}
		return apperrors.NewConfigError("reading config file: %v", err)
	}
	config.ConfigFile = path
	return fc.apply(config, fs)
}

func (fc *FileConfig) apply(c *AppConfig, fs *flag.FlagSet) error {
	unset := func(names ...string) bool { return !isFlagSetAny(fs, names...) }

	if v := fc.Search.Group; v != nil && unset("group", "g") {
		c.Group = strconv.Itoa(*v)
	}
	if v := fc.Search.Left; v != nil && unset("left", "a") {
		c.Left = formatFloat(*v)
	}
	if v := fc.Search.Right; v != nil && unset("right", "b") {
		c.Right = formatFloat(*v)
	}
	if v := fc.Search.Tolerance; v != nil && unset("tolerance", "e") {
		c.Tolerance = formatFloat(*v)
	}
	if v := fc.Search.Timeout; v != nil && unset("timeout") {
		d, err := time.ParseDuration(*v)
		if err != nil {
			return apperrors.NewConfigError("config file: invalid search.timeout %q", *v)
		}
		c.Timeout = d
	}
	if v := fc.Search.Jobs; v != nil && unset("jobs") {
		c.Jobs = *v
	}
	if v := fc.Output.Quiet; v != nil && unset("quiet", "q") {
		c.Quiet = *v
	}
	if v := fc.Output.Verbose; v != nil && unset("verbose", "v") {
		c.Verbose = *v
	}
	if v := fc.Output.NoColor; v != nil && unset("no-color") {
		c.NoColor = *v
	}
	if v := fc.Output.Theme; v != nil && unset("theme") {
		c.Theme = *v
	}
	if v := fc.Output.File; v != nil && unset("output", "o") {
		c.OutputFile = *v
	}
	if v := fc.Server.Addr; v != nil && unset("addr") {
		c.Addr = *v
	}
	if v := fc.Server.Rate; v != nil && unset("rate") {
		c.Rate = *v
	}
	if v := fc.Server.History; v != nil && unset("history") {
		c.HistoryDB = *v
	}
	if v := fc.Log.Level; v != nil && unset("log-level") {
		c.LogLevel = *v
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
