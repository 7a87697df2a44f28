// Package config loads the application configuration and the persisted
// user preferences.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ivlev/photo2video/internal/sequencer"
)

const (
	defaultWidth   = 1280
	defaultHeight  = 720
	defaultFPS     = 30
	defaultBuffers = 2
)

// EnvPrefix prefixes environment overrides, e.g. PHOTO2VIDEO_RENDER_FPS.
const EnvPrefix = "PHOTO2VIDEO"

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

type Config struct {
	Render      RenderConfig      `mapstructure:"render"`
	Output      OutputConfig      `mapstructure:"output"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Pool        PoolConfig        `mapstructure:"pool"`
	Stats       bool              `mapstructure:"stats"`
}

// RenderConfig sets the frame geometry and encoder. Codec is an ffmpeg
// encoder name, or "auto" to probe for hardware encoders.
type RenderConfig struct {
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	FPS     int    `mapstructure:"fps"`
	Codec   string `mapstructure:"codec"`
	Quality int    `mapstructure:"quality"`
	Hold    string `mapstructure:"hold"`
	DPI     int    `mapstructure:"dpi"`
}

type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	BaseName       string `mapstructure:"base_name"`
	CompositedName string `mapstructure:"composited_name"`
}

type PreferencesConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type PoolConfig struct {
	Buffers int `mapstructure:"buffers"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("render.width", defaultWidth)
	v.SetDefault("render.height", defaultHeight)
	v.SetDefault("render.fps", defaultFPS)
	v.SetDefault("render.codec", "auto")
	v.SetDefault("render.quality", 0)
	v.SetDefault("render.hold", sequencer.HoldHalf.String())
	v.SetDefault("render.dpi", 150)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.base_name", "AssembledVideo.mp4")
	v.SetDefault("output.composited_name", "AnimatedVideo.mp4")

	v.SetDefault("preferences.path", "photo2video-prefs.yaml")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", true)

	v.SetDefault("pool.buffers", defaultBuffers)
	v.SetDefault("stats", false)
}

// BindEnv makes v read PHOTO2VIDEO_* environment variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	r := c.Render
	if r.Width <= 0 || r.Height <= 0 || r.Width%2 != 0 || r.Height%2 != 0 {
		return fmt.Errorf("render size %dx%d must be positive and even", r.Width, r.Height)
	}
	if r.FPS <= 0 {
		return fmt.Errorf("render fps %d must be positive", r.FPS)
	}
	if _, err := sequencer.ParseHoldMode(r.Hold); err != nil {
		return err
	}
	if c.Output.Dir == "" || c.Output.BaseName == "" || c.Output.CompositedName == "" {
		return fmt.Errorf("output dir and file names must be set")
	}
	if c.Output.BaseName == c.Output.CompositedName {
		return fmt.Errorf("base and composited output names must differ")
	}
	if c.Pool.Buffers < 1 {
		return fmt.Errorf("pool buffers %d must be at least 1", c.Pool.Buffers)
	}
	return nil
}

// HoldMode is the parsed render.hold value. Validate has already
// rejected bad values.
func (c *Config) HoldMode() sequencer.HoldMode {
	m, _ := sequencer.ParseHoldMode(c.Render.Hold)
	return m
}
