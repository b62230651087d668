package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/drscotthawley/espiownage/internal/utils"
	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/mask"
	"github.com/drscotthawley/espiownage/pkg/synth"
	"github.com/drscotthawley/espiownage/pkg/types"
)

// Environment variables that override file settings.
const (
	EnvWorkers    = "ESPI_WORKERS"
	EnvRingStep   = "ESPI_RING_STEP"
	EnvRealImages = "ESPI_REAL_IMAGES"
	EnvCropFormat = "ESPI_CROP_FORMAT"
)

// Config holds the application configuration
type Config struct {
	Image   ImageConfig `json:"image"`
	Rings   RingsConfig `json:"rings"`
	Masks   MaskConfig  `json:"masks"`
	Crops   CropConfig  `json:"crops"`
	Synth   SynthConfig `json:"synth"`
	Workers int         `json:"workers"`
}

// ImageConfig describes the frames that accompany each record
type ImageConfig struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
}

// RingsConfig holds the ring-count range and class quantization step
type RingsConfig struct {
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// MaskConfig holds configuration for segmentation mask generation
type MaskConfig struct {
	Mode    string `json:"mode"`
	Overlap string `json:"overlap"`
	Suffix  string `json:"suffix"`
}

// CropConfig holds configuration for antinode crops
type CropConfig struct {
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	Lossless  bool   `json:"lossless"`
	OutputDir string `json:"output_dir"`
}

// SynthConfig holds configuration for the fake-data generator
type SynthConfig struct {
	Count        int     `json:"count"`
	Seed         int64   `json:"seed"`
	MaxAntinodes int     `json:"max_antinodes"`
	BlurProb     float64 `json:"blur_prob"`
	MinLineWidth float64 `json:"min_line_width"`
	RealImageDir string  `json:"real_image_dir"`
	OutputDir    string  `json:"output_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Image: ImageConfig{
			Width:  512,
			Height: 384,
			Ext:    "png",
		},
		Rings: RingsConfig{
			Max:  ellipse.MaxRings,
			Step: 0.1,
		},
		Masks: MaskConfig{
			Mode:    "rings",
			Overlap: "last",
			Suffix:  "_P",
		},
		Crops: CropConfig{
			Format:    "png",
			Quality:   90,
			OutputDir: "./crops",
		},
		Synth: SynthConfig{
			Count:        50000,
			Seed:         1,
			MaxAntinodes: 6,
			BlurProb:     0.3,
			MinLineWidth: 4,
			OutputDir:    "./fake",
		},
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path if it exists, then .env and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadFromFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	// a missing .env file is fine
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides settings from the environment, read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := getenv(EnvRingStep); v != "" {
		step, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRingStep, err)
		}
		c.Rings.Step = step
	}
	if v := getenv(EnvRealImages); v != "" {
		c.Synth.RealImageDir = v
	}
	if v := getenv(EnvCropFormat); v != "" {
		c.Crops.Format = strings.ToLower(v)
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	if err := utils.EnsureDir(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Image.Width < 1 || c.Image.Height < 1 {
		return fmt.Errorf("image.width and image.height must be positive")
	}

	if c.Image.Ext == "" {
		return fmt.Errorf("image.ext cannot be empty")
	}

	if c.Rings.Max <= 0 || c.Rings.Max > ellipse.MaxRings {
		return fmt.Errorf("rings.max must be in (0, %v]", ellipse.MaxRings)
	}

	q, err := c.Quantizer()
	if err != nil {
		return fmt.Errorf("rings.step: %w", err)
	}
	if c.Masks.Mode == "rings" && q.Index(c.Rings.Max) > math.MaxUint8 {
		return fmt.Errorf("rings.step %v gives more classes than an 8-bit mask holds", c.Rings.Step)
	}

	if _, err := mask.ParseFillMode(c.Masks.Mode); err != nil {
		return fmt.Errorf("masks.mode: %w", err)
	}

	if _, err := mask.ParseOverlap(c.Masks.Overlap); err != nil {
		return fmt.Errorf("masks.overlap: %w", err)
	}

	switch c.Crops.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("crops.format must be png, jpg or webp")
	}

	if c.Crops.Quality < 1 || c.Crops.Quality > 100 {
		return fmt.Errorf("crops.quality must be between 1 and 100")
	}

	if c.Synth.MaxAntinodes < 1 {
		return fmt.Errorf("synth.max_antinodes must be positive")
	}

	if c.Synth.BlurProb < 0 || c.Synth.BlurProb > 1 {
		return fmt.Errorf("synth.blur_prob must be between 0 and 1")
	}

	if c.Synth.MinLineWidth <= 0 {
		return fmt.Errorf("synth.min_line_width must be positive")
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}

	return nil
}

// Quantizer returns the ring-class quantizer for rings.step.
func (c *Config) Quantizer() (ellipse.Quantizer, error) {
	return ellipse.NewQuantizer(c.Rings.Step)
}

// MaskBuilder returns the mask builder described by the masks section.
func (c *Config) MaskBuilder() (mask.Builder, error) {
	q, err := c.Quantizer()
	if err != nil {
		return mask.Builder{}, err
	}
	mode, err := mask.ParseFillMode(c.Masks.Mode)
	if err != nil {
		return mask.Builder{}, err
	}
	overlap, err := mask.ParseOverlap(c.Masks.Overlap)
	if err != nil {
		return mask.Builder{}, err
	}
	return mask.Builder{Quantizer: q, Mode: mode, Overlap: overlap, FlatValue: 1}, nil
}

// EncodeOptions returns the crop encoding settings.
func (c *Config) EncodeOptions() types.EncodeOptions {
	return types.EncodeOptions{Format: c.Crops.Format, Quality: c.Crops.Quality, Lossless: c.Crops.Lossless}
}

// SynthSettings returns generator settings, listing real background images
// when a directory is configured.
func (c *Config) SynthSettings() (synth.Config, error) {
	sc := synth.Config{
		Width:        c.Image.Width,
		Height:       c.Image.Height,
		Seed:         c.Synth.Seed,
		MaxAntinodes: c.Synth.MaxAntinodes,
		BlurProb:     c.Synth.BlurProb,
		MinLineWidth: c.Synth.MinLineWidth,
	}
	if c.Synth.RealImageDir != "" {
		imgs, err := utils.ListImageFiles(c.Synth.RealImageDir)
		if err != nil {
			return sc, fmt.Errorf("failed to list real images: %w", err)
		}
		sc.Backgrounds = imgs
	}
	return sc, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "espiownage", "config.json")
}
