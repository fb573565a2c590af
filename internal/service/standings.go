package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"pythag-league/internal/config"
	"pythag-league/internal/domain"
	"pythag-league/internal/season"
	"pythag-league/internal/standings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	ErrSeasonNotFound = errors.New("season not found")
	ErrPresetNotFound = errors.New("preset not found")
)

type memoKey struct {
	season string
	opts   standings.Options
}

// StandingsService serves standings for the seasons loaded at startup.
// Results are memoised per season and options; seasons never change after
// load so entries are never invalidated.
type StandingsService struct {
	seasons  map[string]*season.Season
	presets  map[string]standings.Options
	defaults standings.Options
	logger   zerolog.Logger

	mu    sync.RWMutex
	memo  map[memoKey][]domain.TeamResult
	group singleflight.Group
}

func NewStandingsService(cfg *config.Config, seasons []*season.Season, presets map[string]standings.Options, logger zerolog.Logger) *StandingsService {
	byName := make(map[string]*season.Season, len(seasons))
	for _, s := range seasons {
		byName[s.Name] = s
	}
	if presets == nil {
		presets = map[string]standings.Options{}
	}
	return &StandingsService{
		seasons:  byName,
		presets:  presets,
		defaults: cfg.Defaults,
		logger:   logger,
		memo:     make(map[memoKey][]domain.TeamResult),
	}
}

func (s *StandingsService) Seasons() []string {
	names := make([]string, 0, len(s.seasons))
	for name := range s.seasons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *StandingsService) Defaults() standings.Options {
	return s.defaults
}

func (s *StandingsService) Preset(name string) (standings.Options, error) {
	opts, ok := s.presets[name]
	if !ok {
		return standings.Options{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return opts, nil
}

// Standings returns the table for a season. Concurrent calls with the same
// season and options share one computation.
func (s *StandingsService) Standings(ctx context.Context, name string, opts standings.Options) ([]domain.TeamResult, error) {
	sn, ok := s.seasons[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSeasonNotFound, name)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	key := memoKey{season: name, opts: opts.Key()}

	s.mu.RLock()
	cached, ok := s.memo[key]
	s.mu.RUnlock()
	if ok {
		s.logger.Debug().Str("season", name).Msg("returning memoised standings")
		return slices.Clone(cached), nil
	}

	ch := s.group.DoChan(fmt.Sprintf("%s|%+v", key.season, key.opts), func() (any, error) {
		return s.compute(sn, opts, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]domain.TeamResult)), nil
	}
}

func (s *StandingsService) compute(sn *season.Season, opts standings.Options, key memoKey) ([]domain.TeamResult, error) {
	start := time.Now()

	rows, err := standings.ComputeStandings(sn.Stages, opts)
	if err != nil {
		s.logger.Error().Err(err).Str("season", sn.Name).Str("load_id", sn.LoadID).Msg("failed to compute standings")
		return nil, fmt.Errorf("season %q: %w", sn.Name, err)
	}

	s.mu.Lock()
	s.memo[key] = rows
	s.mu.Unlock()

	s.logger.Info().
		Str("season", sn.Name).
		Str("load_id", sn.LoadID).
		Int("team_count", len(rows)).
		Bool("use_points", opts.UsePoints).
		Bool("recalculate_exponent", opts.RecalculateExponent).
		Dur("duration", time.Since(start)).
		Msg("standings computed")

	return rows, nil
}
