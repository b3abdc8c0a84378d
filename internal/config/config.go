// Package config reads server settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// DBPath is the SQLite file used by the save/load tools. Empty disables
	// persistence.
	DBPath string
	// Epsilon is the coordinate tolerance used for shape deduplication.
	Epsilon float64
	// Threshold is the default luminance level for image-to-mask conversion.
	Threshold int
	// MaxRequestBytes bounds a single JSON-RPC request line.
	MaxRequestBytes int
	// MaxPixels bounds the width*height of any mask or image a request
	// may create.
	MaxPixels int
}

// Load reads an optional .env file in the working directory, then the
// MASK_MCP_* environment variables. Variables already set in the
// environment win over the file.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadFile is Load with an explicit env file. A missing file is an error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, err
	}
	return FromEnv(), nil
}

// Default returns the settings used when no variable is set.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		Epsilon:         1e-6,
		Threshold:       128,
		MaxRequestBytes: 64 * 1024 * 1024,
		MaxPixels:       1 << 26,
	}
}

// FromEnv reads the environment only, falling back to Default.
func FromEnv() *Config {
	d := Default()
	return &Config{
		LogLevel:        strings.ToLower(getEnv("MASK_MCP_LOG_LEVEL", d.LogLevel)),
		DBPath:          getEnv("MASK_MCP_DB", d.DBPath),
		Epsilon:         getEnvAsFloat("MASK_MCP_EPSILON", d.Epsilon),
		Threshold:       clamp(getEnvAsInt("MASK_MCP_THRESHOLD", d.Threshold), 0, 255),
		MaxRequestBytes: getEnvAsInt("MASK_MCP_MAX_REQUEST_BYTES", d.MaxRequestBytes),
		MaxPixels:       max(getEnvAsInt("MASK_MCP_MAX_PIXELS", d.MaxPixels), 1),
	}
}

// SlogLevel maps LogLevel onto slog; unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
			return f
		}
	}
	return defaultValue
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
