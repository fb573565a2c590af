package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"pythag-league/internal/standings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	SeasonsDir  string
	PresetsPath string
	ServerPort  string
	LogLevel    string
	CORSOrigins []string

	// Defaults apply to standings requests that leave an option unset.
	Defaults standings.Options
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SeasonsDir:  getEnv("SEASONS_DIR", "data"),
		PresetsPath: getEnv("PRESETS_PATH", ""),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		Defaults:    defaults,
	}

	info, err := os.Stat(cfg.SeasonsDir)
	if err != nil {
		return nil, fmt.Errorf("SEASONS_DIR %q: %w", cfg.SeasonsDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("SEASONS_DIR %q is not a directory", cfg.SeasonsDir)
	}

	logger.Info().
		Str("seasons_dir", cfg.SeasonsDir).
		Str("presets_path", cfg.PresetsPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Strs("cors_origins", cfg.CORSOrigins).
		Interface("defaults", cfg.Defaults).
		Msg("configuration loaded")

	return cfg, nil
}

func loadDefaults() (standings.Options, error) {
	opts := standings.DefaultOptions()

	var err error
	if opts.IncludePreseason, err = getBool("INCLUDE_PRESEASON", opts.IncludePreseason); err != nil {
		return opts, err
	}
	if opts.IncludePlayoffs, err = getBool("INCLUDE_PLAYOFFS", opts.IncludePlayoffs); err != nil {
		return opts, err
	}
	if opts.UsePoints, err = getBool("USE_POINTS", opts.UsePoints); err != nil {
		return opts, err
	}
	if opts.RecalculateExponent, err = getBool("RECALCULATE_EXPONENT", opts.RecalculateExponent); err != nil {
		return opts, err
	}
	if opts.Exponent, err = getFloat("EXPONENT", opts.Exponent); err != nil {
		return opts, err
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("EXPONENT: %w", err)
	}
	return opts, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
