package fx

import (
	"context"

	"pythag-league/internal/config"
	"pythag-league/internal/constants"
	"pythag-league/internal/logger"
	"pythag-league/internal/season"
	"pythag-league/internal/server"
	"pythag-league/internal/service"
	"pythag-league/internal/standings"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideSeasons(loader *season.Loader, cfg *config.Config) ([]*season.Season, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.SeasonLoadTimeout)
	defer cancel()
	return loader.LoadDir(ctx, cfg.SeasonsDir)
}

func ProvidePresets(cfg *config.Config, logger zerolog.Logger) (map[string]standings.Options, error) {
	if cfg.PresetsPath == "" {
		return map[string]standings.Options{}, nil
	}
	presets, err := standings.LoadPresets(cfg.PresetsPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.PresetsPath).Int("preset_count", len(presets)).Msg("presets loaded")
	return presets, nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	// data
	fx.Provide(season.NewLoader),
	fx.Provide(ProvideSeasons),
	fx.Provide(ProvidePresets),
	// svc
	fx.Provide(service.NewStandingsService),
	// server
	fx.Provide(server.NewStandingsServer),
)
