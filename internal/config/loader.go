package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable ctxpack reads.
const EnvPrefix = "CTXPACK"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → .env → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CTXPACK_*), including ones from <root>/.env
// 2. Config file (.ctxpack/config.yml or .ctxpack/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	// .env never overrides variables already present in the process
	envPath := filepath.Join(l.rootDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".ctxpack")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// CTXPACK_BUDGET_LIMIT → budget.limit
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal only sees env values for keys viper knows about
	v.BindEnv("marker.instruction")
	v.BindEnv("scope.whole_repo")
	v.BindEnv("scope.references")
	v.BindEnv("budget.limit")
	v.BindEnv("budget.warn_threshold")
	v.BindEnv("diff.branch")
	v.BindEnv("output.regions")
	v.BindEnv("output.trailer")
	v.BindEnv("output.clipboard")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("marker.instruction", defaults.Marker.Instruction)
	v.SetDefault("marker.region_open", defaults.Marker.RegionOpen)
	v.SetDefault("marker.region_close", defaults.Marker.RegionClose)

	v.SetDefault("paths.extensions", defaults.Paths.Extensions)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("scope.package_markers", defaults.Scope.PackageMarkers)
	v.SetDefault("scope.whole_repo", defaults.Scope.WholeRepo)
	v.SetDefault("scope.references", defaults.Scope.References)

	v.SetDefault("budget.limit", defaults.Budget.Limit)
	v.SetDefault("budget.warn_threshold", defaults.Budget.WarnThreshold)

	v.SetDefault("diff.branch", defaults.Diff.Branch)

	v.SetDefault("output.regions", defaults.Output.Regions)
	v.SetDefault("output.trailer", defaults.Output.Trailer)
	v.SetDefault("output.clipboard", defaults.Output.Clipboard)
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
