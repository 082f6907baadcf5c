// Package config loads server configuration from the environment and
// builds the process logger.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all server configuration.
type Config struct {
	Port           int
	DBPath         string
	LogLevel       string
	AllowedOrigins []string
	// RatesFile is an optional YAML or JSON override applied to every
	// organization before its stored overrides.
	RatesFile string
}

// Load reads .env (if present) and the environment.
func Load(logger *logrus.Logger) Config {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.WithFields(logrus.Fields{"module": "config", "funcName": "Load"}).
			Debug("no .env file found, using environment variables")
	}

	return Config{
		Port:           envInt("PORT", 8080),
		DBPath:         envOr("DB_PATH", "premi.db"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		RatesFile:      os.Getenv("RATES_FILE"),
	}
}

// NewLogger returns a JSON logger on stdout. An unknown level falls back to
// info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// LogError logs err with the module/funcName fields used across the server.
func LogError(logger *logrus.Logger, moduleName, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envList reads a comma separated list.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
