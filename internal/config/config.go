package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"cellfade/domain/analysis"
	"cellfade/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Analysis AnalysisConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DataConfig says where test data comes from. An empty DataFile means the
// built-in canonical fixtures.
type DataConfig struct {
	DataFile      string
	StatsFile     string
	AvgCyclesTo80 float64
}

// AnalysisConfig holds defaults for analysis requests
type AnalysisConfig struct {
	// Seed pins synthesized telemetry; 0 draws fresh entropy per request
	Seed       int64
	Regression analysis.RegressionKind
	Checkpoint analysis.Checkpoint
	// Workers bounds parallel synthesis
	Workers int
}

// Load reads .env (if present) and the environment, then validates
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped;
// variables already set in the environment win.
func LoadFiles(files ...string) (*Config, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", f)
		}
	}

	kind, err := analysis.ParseKind(getEnvOrDefault("CELLFADE_REGRESSION", string(analysis.KindLinear)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Data: DataConfig{
			DataFile:      strings.TrimSpace(os.Getenv("CELLFADE_DATA_FILE")),
			StatsFile:     strings.TrimSpace(os.Getenv("CELLFADE_STATS_FILE")),
			AvgCyclesTo80: getEnvFloatOrDefault("CELLFADE_AVG_CYCLES_TO_80", 1850),
		},
		Analysis: AnalysisConfig{
			Seed:       getEnvInt64OrDefault("CELLFADE_SEED", 0),
			Regression: kind,
			Checkpoint: analysis.Checkpoint(getEnvIntOrDefault("CELLFADE_CHECKPOINT", 500)),
			Workers:    getEnvIntOrDefault("CELLFADE_WORKERS", 4),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric, got " + config.Server.Port)
	}
	if !config.Analysis.Checkpoint.Supported() {
		return errors.ConfigInvalid("CELLFADE_CHECKPOINT must be 500, 1000 or 2000")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("CELLFADE_WORKERS must be at least 1")
	}
	if config.Data.StatsFile != "" && config.Data.DataFile == "" {
		return errors.ConfigInvalid("CELLFADE_STATS_FILE requires CELLFADE_DATA_FILE")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
