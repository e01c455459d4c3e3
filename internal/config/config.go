package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	pipelineerrors "tradepulse/internal/errors"
)

// EnvPrefix is the prefix for environment variable overrides (TRADE_*).
const EnvPrefix = "TRADE"

// DefaultSeed seeds the splitter and every tree in the forest unless
// overridden; a fixed constant keeps runs reproducible.
const DefaultSeed = 42

// Config represents the complete pipeline configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" envconfig:"INPUT"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Model    ModelConfig    `yaml:"model" envconfig:"MODEL"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig controls dataset loading and filtering.
type InputConfig struct {
	Path              string `yaml:"path" envconfig:"PATH" validate:"required"`
	Flow              string `yaml:"flow" envconfig:"FLOW" validate:"oneof=Export Import Re-export Re-import"`
	DropUncategorized bool   `yaml:"drop_uncategorized" envconfig:"DROP_UNCATEGORIZED"`
}

// AnalysisConfig controls the year pair used for direction labeling and the
// leakage guard applied to the change-matrix feature columns.
type AnalysisConfig struct {
	ReferenceYear int `yaml:"reference_year" envconfig:"REFERENCE_YEAR" validate:"min=1900,max=2100"`
	TargetYear    int `yaml:"target_year" envconfig:"TARGET_YEAR" validate:"min=1900,max=2100"`

	// DropRecent overrides the derived leakage guard. The default of -1
	// derives the cut from TargetYear: every change column with a year at
	// or past the target is excluded from the feature set. A non-negative
	// value instead drops that many of the most recent change columns.
	DropRecent int `yaml:"drop_recent" envconfig:"DROP_RECENT" validate:"min=-1"`
}

// ModelConfig controls the train/test split and the random forest.
type ModelConfig struct {
	TestFraction  float64 `yaml:"test_fraction" envconfig:"TEST_FRACTION" validate:"gt=0,lt=1"`
	Seed          int64   `yaml:"seed" envconfig:"SEED"`
	NumTrees      int     `yaml:"num_trees" envconfig:"NUM_TREES" validate:"min=1"`
	MaxDepth      int     `yaml:"max_depth" envconfig:"MAX_DEPTH" validate:"min=1"`
	MinLeafSize   int     `yaml:"min_leaf_size" envconfig:"MIN_LEAF_SIZE" validate:"min=1"`
	MissingPolicy string  `yaml:"missing_policy" envconfig:"MISSING_POLICY" validate:"oneof=drop impute"`
}

// OutputConfig controls where report artifacts are written.
type OutputConfig struct {
	Dir          string `yaml:"dir" envconfig:"DIR" validate:"required"`
	WorkbookName string `yaml:"workbook_name" envconfig:"WORKBOOK_NAME" validate:"required"`
	Charts       bool   `yaml:"charts" envconfig:"CHARTS"`
	TopMovers    int    `yaml:"top_movers" envconfig:"TOP_MOVERS" validate:"min=1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
	Output string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`

	// FilePath is only consulted when Output is "file" or "both".
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the configuration with every field at its documented
// default value.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:              "data/commodity_trade.csv",
			Flow:              "Export",
			DropUncategorized: true,
		},
		Analysis: AnalysisConfig{
			ReferenceYear: 2011,
			TargetYear:    2012,
			DropRecent:    -1,
		},
		Model: ModelConfig{
			TestFraction:  0.2,
			Seed:          DefaultSeed,
			NumTrees:      100,
			MaxDepth:      10,
			MinLeafSize:   1,
			MissingPolicy: "drop",
		},
		Output: OutputConfig{
			Dir:          "reports",
			WorkbookName: "trade_analysis.xlsx",
			Charts:       true,
			TopMovers:    10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/trade-report.log",
		},
	}
}

// Load builds the configuration in three layers: documented defaults, an
// optional YAML file, and TRADE_* environment variables, each layer
// overriding the previous one. The result is validated before return.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	// Optional file overlay.
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}

	// Environment variables take precedence over the file.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and cross-field invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return pipelineerrors.Wrap(
			pipelineerrors.NewInvalidConfig("field validation failed"), err)
	}

	// The labeler compares consecutive years; a wider gap would silently
	// change the meaning of every change column kept as a feature.
	if c.Analysis.TargetYear != c.Analysis.ReferenceYear+1 {
		return pipelineerrors.NewInvalidConfig(
			"target_year must be reference_year+1 (got reference=%d target=%d)",
			c.Analysis.ReferenceYear, c.Analysis.TargetYear)
	}

	return nil
}
