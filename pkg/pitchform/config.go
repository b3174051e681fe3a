package pitchform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PitchformConfig contains all configurable parameters that influence feature
// construction. This centralizes all magic numbers and constants for easy
// adjustment, and can be overridden from a YAML file.
type PitchformConfig struct {
	// Paths
	AssetsPath string `yaml:"assetsPath"` // base directory for pitchform assets
	CachePath  string `yaml:"cachePath"`  // where downloaded season CSVs are cached
	DbPath     string `yaml:"dbPath"`     // location of the sqlite output database

	// === INGESTION ===

	Seasons []int `yaml:"seasons"` // season start years to ingest (2016 means 2016/2017)

	// Kickoff handling for sources that carry a date but no time column.
	// Attaching a fixed UTC hour keeps event keys and snapshot ordering deterministic.
	DefaultKickoffHour int `yaml:"defaultKickoffHour"` // default: 12 (noon UTC)

	// Approximate snapshot times for CSV-sourced quotes, as hours before kickoff
	OpenSnapshotLeadHours  int `yaml:"openSnapshotLeadHours"`  // default: 24
	CloseSnapshotLeadHours int `yaml:"closeSnapshotLeadHours"` // default: 1

	// === NAME NORMALIZATION ===

	// Minimum similarity (0-1) before a fuzzy candidate is accepted
	FuzzyThreshold float64 `yaml:"fuzzyThreshold"` // default: 0.85

	// === FORM CALCULATION ===

	FormWindows    []int `yaml:"formWindows"`    // rolling window sizes (default: 5, 10)
	RoleFormWindow int   `yaml:"roleFormWindow"` // window for home-only/away-only splits (default: 10)

	// === HEAD TO HEAD ===

	HeadToHeadK int `yaml:"headToHeadK"` // prior meetings to count (default: 5)

	// === SEQUENCES ===

	SequenceLookback int `yaml:"sequenceLookback"` // snapshots per input window (default: 2)

	// === NUMERIC TOLERANCE ===

	FloatTolerance float64 `yaml:"floatTolerance"` // default: 1e-6
}

// DefaultPitchformConfig returns the default configuration with all standard values
func DefaultPitchformConfig() *PitchformConfig {
	assetsPath := os.Getenv("HOME") + "/.pitchform/"
	return &PitchformConfig{
		AssetsPath: assetsPath,
		CachePath:  assetsPath + "cache/",
		DbPath:     assetsPath + "pitchform.db",

		Seasons: []int{2016, 2017, 2018, 2019, 2020, 2021, 2022, 2023, 2024},

		DefaultKickoffHour:     12,
		OpenSnapshotLeadHours:  24,
		CloseSnapshotLeadHours: 1,

		FuzzyThreshold: 0.85,

		FormWindows:    []int{5, 10},
		RoleFormWindow: 10,

		HeadToHeadK: 5,

		SequenceLookback: 2,

		FloatTolerance: 1e-6,
	}
}

// Global configuration instance
var Config *PitchformConfig

// init initializes the global configuration with default values
func init() {
	Config = DefaultPitchformConfig()
}

// UpdateConfig allows updating the global configuration
func UpdateConfig(newConfig *PitchformConfig) error {
	if err := ValidateConfig(newConfig); err != nil {
		return err
	}
	Config = newConfig
	return nil
}

// LoadConfig overlays YAML settings from the given file onto the defaults
func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := DefaultPitchformConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return UpdateConfig(cfg)
}

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *PitchformConfig) error {
	if config.FuzzyThreshold < 0.0 || config.FuzzyThreshold > 1.0 {
		return fmt.Errorf("FuzzyThreshold must be between 0.0 and 1.0, got: %f", config.FuzzyThreshold)
	}
	if len(config.FormWindows) == 0 {
		return fmt.Errorf("FormWindows must contain at least one window size")
	}
	for _, w := range config.FormWindows {
		if w < 1 {
			return fmt.Errorf("FormWindows entries must be >= 1, got: %d", w)
		}
	}
	if config.RoleFormWindow < 1 {
		return fmt.Errorf("RoleFormWindow must be >= 1, got: %d", config.RoleFormWindow)
	}
	if config.HeadToHeadK < 1 {
		return fmt.Errorf("HeadToHeadK must be >= 1, got: %d", config.HeadToHeadK)
	}
	if config.SequenceLookback < 1 {
		return fmt.Errorf("SequenceLookback must be >= 1, got: %d", config.SequenceLookback)
	}
	if config.DefaultKickoffHour < 0 || config.DefaultKickoffHour > 23 {
		return fmt.Errorf("DefaultKickoffHour must be between 0 and 23, got: %d", config.DefaultKickoffHour)
	}
	return nil
}

// === HELPER FUNCTIONS FOR EASY ACCESS ===

// GetFormWindows returns the configured rolling window sizes
func GetFormWindows() []int {
	return Config.FormWindows
}

// GetRoleFormWindow returns the window size for home-only/away-only form
func GetRoleFormWindow() int {
	return Config.RoleFormWindow
}

// GetHeadToHeadK returns the number of prior meetings to tally
func GetHeadToHeadK() int {
	return Config.HeadToHeadK
}

// GetFuzzyThreshold returns the minimum similarity for fuzzy name matches
func GetFuzzyThreshold() float64 {
	return Config.FuzzyThreshold
}

// GetSequenceLookback returns the lagged-sequence input length
func GetSequenceLookback() int {
	return Config.SequenceLookback
}

// GetFloatTolerance returns the tolerance used for probability sums
func GetFloatTolerance() float64 {
	return Config.FloatTolerance
}
