// Package config holds the emulator settings read through viper.
package config

import (
	"strings"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/viper"
	"golang.org/x/image/colornames"
)

const (
	DisplayWindow = "window"
	DisplayTerm   = "term"
)

// TermColors are the color names the terminal display can show.
var TermColors = []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

type Config struct {
	ClockHz    float64 `mapstructure:"clock_hz"`   // instructions per second
	RefreshHz  int     `mapstructure:"refresh_hz"` // frames and timer ticks per second
	Scale      int     `mapstructure:"scale"`
	Display    string  `mapstructure:"display"`
	DrawMode   string  `mapstructure:"draw_mode"`
	ShiftQuirk bool    `mapstructure:"shift_quirk"`
	Strict     bool    `mapstructure:"strict"`
	Seed       int64   `mapstructure:"seed"` // 0 picks a time based seed
	BeepFile   string  `mapstructure:"beep_file"`
	BeepHz     float64 `mapstructure:"beep_hz"`
	FgColor    string  `mapstructure:"fg_color"`
	BgColor    string  `mapstructure:"bg_color"`
	Debug      bool    `mapstructure:"debug"`
	Quiet      bool    `mapstructure:"quiet"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("clock_hz", 400.0)
	v.SetDefault("refresh_hz", 60)
	v.SetDefault("scale", 8)
	v.SetDefault("display", DisplayWindow)
	v.SetDefault("draw_mode", cpu.DrawWrap.String())
	v.SetDefault("shift_quirk", false)
	v.SetDefault("strict", false)
	v.SetDefault("seed", 0)
	v.SetDefault("beep_file", "")
	v.SetDefault("beep_hz", 440.0)
	v.SetDefault("fg_color", "white")
	v.SetDefault("bg_color", "black")
	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decoding config")
	}
	cfg.Display = strings.ToLower(cfg.Display)
	cfg.DrawMode = strings.ToLower(cfg.DrawMode)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ClockHz <= 0 {
		return errors.Errorf("clock_hz must be positive, got %v", c.ClockHz)
	}
	if c.RefreshHz <= 0 {
		return errors.Errorf("refresh_hz must be positive, got %d", c.RefreshHz)
	}
	if c.Scale <= 0 {
		return errors.Errorf("scale must be positive, got %d", c.Scale)
	}
	if c.Display != DisplayWindow && c.Display != DisplayTerm {
		return errors.Errorf("unsupported display %q, use %s or %s", c.Display, DisplayWindow, DisplayTerm)
	}
	if _, err := cpu.ParseDrawMode(c.DrawMode); err != nil {
		return err
	}
	for _, name := range []string{c.FgColor, c.BgColor} {
		if _, ok := colornames.Map[name]; !ok {
			return errors.Errorf("unknown color %q", name)
		}
		if c.Display == DisplayTerm && !isTermColor(name) {
			return errors.Errorf("color %q not available on the terminal, use one of %s", name, strings.Join(TermColors, ", "))
		}
	}
	return nil
}

func isTermColor(name string) bool {
	for _, c := range TermColors {
		if c == name {
			return true
		}
	}
	return false
}

// CPUOptions translates the emulation switches into cpu options.
func (c Config) CPUOptions(logger *log.Logger) []cpu.Option {
	mode, _ := cpu.ParseDrawMode(c.DrawMode)
	opts := []cpu.Option{
		cpu.WithLogger(logger),
		cpu.WithDrawMode(mode),
		cpu.WithShiftQuirk(c.ShiftQuirk),
		cpu.WithStrict(c.Strict),
	}
	if c.Seed != 0 {
		opts = append(opts, cpu.WithSeed(c.Seed))
	}
	return opts
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
