package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"anim-cfg-export/internal/crypto"
	"anim-cfg-export/internal/encoder"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// ErrInvalid is returned when a resolved Config cannot drive an export.
var ErrInvalid = errors.New("config: invalid")

// Config holds an export job. Pointer fields distinguish "unset" from zero.
type Config struct {
	// Paths
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
	LEAKey string `json:"lea_key" yaml:"lea_key"`

	// Sampling
	Action     int      `json:"action" yaml:"action"`
	Parent     string   `json:"parent" yaml:"parent"`
	FrameStart *int     `json:"frame_start" yaml:"frame_start"`
	FrameEnd   *int     `json:"frame_end" yaml:"frame_end"`
	Selection  []string `json:"selection" yaml:"selection"`
	Armature   bool     `json:"armature" yaml:"armature"`

	// Encoding
	SourceName    string   `json:"source_name" yaml:"source_name"`
	SourceAddress string   `json:"source_address" yaml:"source_address"`
	MinValue      *float64 `json:"min_value" yaml:"min_value"`
	MaxValue      *float64 `json:"max_value" yaml:"max_value"`
	Precision     *int     `json:"precision" yaml:"precision"`

	// Output layout
	CreateFolder *bool  `json:"create_folder" yaml:"create_folder"`
	FolderName   string `json:"folder_name" yaml:"folder_name"`
	Preview      string `json:"preview" yaml:"preview"`
	PreviewSize  int    `json:"preview_size" yaml:"preview_size"`
}

// Load reads a JSON or YAML job file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Env mirrors the overridable settings as ANIMCFG_* variables.
type Env struct {
	Input         string   `env:"ANIMCFG_INPUT"`
	Output        string   `env:"ANIMCFG_OUTPUT"`
	LEAKey        string   `env:"ANIMCFG_LEA_KEY"`
	Action        *int     `env:"ANIMCFG_ACTION"`
	Parent        string   `env:"ANIMCFG_PARENT"`
	Selection     []string `env:"ANIMCFG_SELECT" envSeparator:","`
	SourceName    string   `env:"ANIMCFG_SOURCE"`
	SourceAddress string   `env:"ANIMCFG_SOURCE_ADDRESS"`
	Precision     *int     `env:"ANIMCFG_PRECISION"`
	FolderName    string   `env:"ANIMCFG_FOLDER"`
	Preview       string   `env:"ANIMCFG_PREVIEW"`
}

// ParseEnv loads the ANIMCFG_* variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("config: parse env: %w", err)
	}
	return e, nil
}

// ApplyEnv overrides file settings with any variables that are set.
func (c *Config) ApplyEnv(e Env) {
	setString(&c.Input, e.Input)
	setString(&c.Output, e.Output)
	setString(&c.LEAKey, e.LEAKey)
	setString(&c.Parent, e.Parent)
	setString(&c.SourceName, e.SourceName)
	setString(&c.SourceAddress, e.SourceAddress)
	setString(&c.FolderName, e.FolderName)
	setString(&c.Preview, e.Preview)
	if e.Action != nil {
		c.Action = *e.Action
	}
	if e.Precision != nil {
		c.Precision = e.Precision
	}
	if len(e.Selection) > 0 {
		c.Selection = e.Selection
	}
}

// Flags holds CLI flag values that override config file and environment
// settings. Nil pointers and empty strings mean "not given".
type Flags struct {
	Input         string
	Output        string
	LEAKey        string
	Action        *int
	Parent        string
	FrameStart    *int
	FrameEnd      *int
	Selection     []string
	Armature      *bool
	SourceName    string
	SourceAddress string
	MinValue      *float64
	MaxValue      *float64
	Precision     *int
	CreateFolder  *bool
	FolderName    string
	Preview       string
}

// Resolve applies flags, then fills any unset field with its default.
// Frame bounds stay nil when unset; the exporter takes them from the scene.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	setString(&c.Input, flags.Input)
	setString(&c.Output, flags.Output)
	setString(&c.LEAKey, flags.LEAKey)
	setString(&c.Parent, flags.Parent)
	setString(&c.SourceName, flags.SourceName)
	setString(&c.SourceAddress, flags.SourceAddress)
	setString(&c.FolderName, flags.FolderName)
	setString(&c.Preview, flags.Preview)
	if flags.Action != nil {
		c.Action = *flags.Action
	}
	if flags.FrameStart != nil {
		c.FrameStart = flags.FrameStart
	}
	if flags.FrameEnd != nil {
		c.FrameEnd = flags.FrameEnd
	}
	if len(flags.Selection) > 0 {
		c.Selection = flags.Selection
	}
	if flags.Armature != nil {
		c.Armature = *flags.Armature
	}
	if flags.MinValue != nil {
		c.MinValue = flags.MinValue
	}
	if flags.MaxValue != nil {
		c.MaxValue = flags.MaxValue
	}
	if flags.Precision != nil {
		c.Precision = flags.Precision
	}
	if flags.CreateFolder != nil {
		c.CreateFolder = flags.CreateFolder
	}

	// Defaults
	if c.SourceName == "" {
		c.SourceName = "foobar"
	}
	if c.SourceAddress == "" {
		c.SourceAddress = string(encoder.Clamp)
	}
	if c.Precision == nil {
		c.Precision = ptr(7)
	}
	if c.MinValue == nil {
		c.MinValue = ptr(0.0)
	}
	if c.MaxValue == nil {
		c.MaxValue = ptr(1.0)
	}
	if c.CreateFolder == nil {
		c.CreateFolder = ptr(true)
	}
	if c.FolderName == "" {
		c.FolderName = c.SourceName
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
}

// Validate checks a resolved Config.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: no input file", ErrInvalid)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: no output file", ErrInvalid)
	}
	if c.Action < 0 {
		return fmt.Errorf("%w: action %d < 0", ErrInvalid, c.Action)
	}
	if c.FrameStart != nil && c.FrameEnd != nil && *c.FrameStart > *c.FrameEnd {
		return fmt.Errorf("%w: frame start %d after end %d", ErrInvalid, *c.FrameStart, *c.FrameEnd)
	}
	switch c.Preview {
	case "", "webp", "tga":
	default:
		return fmt.Errorf("%w: preview format %q (want webp or tga)", ErrInvalid, c.Preview)
	}
	if _, err := c.Channel(); err != nil {
		return err
	}
	if c.LEAKey != "" {
		if _, err := crypto.ParseLEAKey(c.LEAKey); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

// Channel builds the per-export encoder configuration. Call after Resolve.
func (c *Config) Channel() (encoder.ChannelConfig, error) {
	if c.Precision == nil || c.MinValue == nil || c.MaxValue == nil {
		return encoder.ChannelConfig{}, fmt.Errorf("%w: unresolved config", ErrInvalid)
	}
	mode, err := encoder.ParseAddressMode(c.SourceAddress)
	if err != nil {
		return encoder.ChannelConfig{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	ch, err := encoder.NewChannelConfig(c.SourceName, mode, *c.Precision, *c.MinValue, *c.MaxValue)
	if err != nil {
		return encoder.ChannelConfig{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return ch, nil
}

// Key returns the parsed LEA key, or nil when none is configured.
func (c *Config) Key() (*[32]byte, error) {
	if c.LEAKey == "" {
		return nil, nil
	}
	k, err := crypto.ParseLEAKey(c.LEAKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return &k, nil
}

// Build loads path (if any), applies the environment and flags, and validates.
func Build(path string, flags Flags) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return Config{}, err
		}
	}
	e, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(e)
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func ptr[T any](v T) *T { return &v }
