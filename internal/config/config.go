package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dupe/internal/codec"
)

//go:embed schema.cue
var schemaCUE string

// Defaults mirror the stock tool settings.
const (
	DefaultBudget         = 0.1
	DefaultAreaHalfExtent = 250
	DefaultHeightStep     = 5
	DefaultStore          = "dupe.db"
)

// Config holds every tunable the tool layer and CLI read.
type Config struct {
	// Budget is the replay time budget fraction.
	Budget float64 `yaml:"budget" json:"budget"`

	AreaHalfExtent float64 `yaml:"area_half_extent" json:"area_half_extent"`
	HeightStep     float64 `yaml:"height_step" json:"height_step"`

	// AllowedClasses are captured even when they do not opt in.
	AllowedClasses []string `yaml:"allowed_classes" json:"allowed_classes"`

	FreezeAll   bool `yaml:"freeze_all" json:"freeze_all"`
	UnfreezeAll bool `yaml:"unfreeze_all" json:"unfreeze_all"`

	Limits Limits `yaml:"limits" json:"limits"`

	// Store is the snapshot library path. Load resolves a relative path
	// against the config file's directory.
	Store string `yaml:"store" json:"store"`
}

// Limits mirrors codec.Limits.
type Limits struct {
	Objects     int `yaml:"objects" json:"objects"`
	Constraints int `yaml:"constraints" json:"constraints"`
	Extension   int `yaml:"extension" json:"extension"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Budget:         DefaultBudget,
		AreaHalfExtent: DefaultAreaHalfExtent,
		HeightStep:     DefaultHeightStep,
		AllowedClasses: []string{"prop_physics"},
		Store:          DefaultStore,
	}
}

// Load reads the YAML file at path over Default() and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if cfg.Store != "" && !filepath.IsAbs(cfg.Store) {
		cfg.Store = filepath.Join(filepath.Dir(path), cfg.Store)
	}
	return cfg, nil
}

// Parse decodes YAML over Default() and validates the result. Empty input
// yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks c against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// A nil slice encodes as null, which the list constraint rejects.
	doc := *c
	if doc.AllowedClasses == nil {
		doc.AllowedClasses = []string{}
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DecodeLimits converts the configured caps for the codec.
func (c *Config) DecodeLimits() codec.Limits {
	return codec.Limits{
		Objects:     c.Limits.Objects,
		Constraints: c.Limits.Constraints,
		Extension:   c.Limits.Extension,
	}
}
