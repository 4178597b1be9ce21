// Package conf holds the settings of the command line tools. Settings come from
// defaults, an optional config file, DETECTOR_ prefixed environment variables and
// command line flags, the latter winning.
package conf

import "log/slog"
import "strings"

import "github.com/pkg/errors"
import "github.com/spf13/cobra"
import "github.com/spf13/viper"

import "github.com/neurlang/detector/logging"

// EnvPrefix prefixes the environment variables overriding settings.
const EnvPrefix = "DETECTOR"

// ErrInvalid is returned for settings out of range.
var ErrInvalid = errors.New("invalid settings")

// Settings of a training run.
type Settings struct {
	GridSize     int     `mapstructure:"grid_size"`
	CellSize     int     `mapstructure:"cell_size"`
	Epochs       int     `mapstructure:"epochs"`
	Seed         int64   `mapstructure:"seed"`
	Threads      int     `mapstructure:"threads"`
	Split        float64 `mapstructure:"split"`
	TrainOnSplit bool    `mapstructure:"train_on_split"`
	LogLevel     string  `mapstructure:"log_level"`
	SolverLog    string  `mapstructure:"solver_log"`
	Output       string  `mapstructure:"output"`
}

// defaults of every setting, also the list of known keys
var defaults = map[string]any{
	"grid_size":      4,
	"cell_size":      8,
	"epochs":         3,
	"seed":           0,
	"threads":        0,
	"split":          0.8,
	"train_on_split": false,
	"log_level":      "info",
	"solver_log":     "",
	"output":         "",
}

// New creates a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	for k, value := range defaults {
		v.SetDefault(k, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds the flags of cmd named like settings, dashes for underscores.
func BindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for k := range defaults {
		f := cmd.Flags().Lookup(strings.ReplaceAll(k, "_", "-"))
		if f == nil {
			continue
		}
		if err := v.BindPFlag(k, f); err != nil {
			return errors.Wrapf(err, "bind flag %s", f.Name)
		}
	}
	return nil
}

// Load reads the optional config file (yaml, json or toml by extension) and returns
// the validated settings.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", configFile)
		}
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports settings out of range.
func (s *Settings) Validate() error {
	if s.GridSize < 1 || s.GridSize > 16 {
		return errors.Wrapf(ErrInvalid, "grid_size %d, want 1 to 16", s.GridSize)
	}
	if s.CellSize < 4 || s.CellSize > 10 || s.CellSize%2 != 0 {
		return errors.Wrapf(ErrInvalid, "cell_size %d, want even 4 to 10", s.CellSize)
	}
	if s.Epochs < 0 {
		return errors.Wrapf(ErrInvalid, "epochs %d", s.Epochs)
	}
	if s.Threads < 0 {
		return errors.Wrapf(ErrInvalid, "threads %d", s.Threads)
	}
	if s.Split <= 0 || s.Split > 1 {
		return errors.Wrapf(ErrInvalid, "split %g, want above 0 up to 1", s.Split)
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	return nil
}

// Level is the parsed log level, info when invalid.
func (s *Settings) Level() slog.Level {
	l, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}
