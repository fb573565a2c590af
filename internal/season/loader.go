package season

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pythag-league/internal/constants"
	"pythag-league/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoStages        = errors.New("season has no stages")
	ErrInvalidSeason   = errors.New("invalid season data")
	ErrDuplicateSeason = errors.New("duplicate season name")
)

type Season struct {
	Name   string
	LoadID string
	Path   string
	Stages []domain.Stage
}

// envelope is the shape of the raw league download.
type envelope struct {
	Data struct {
		Stages json.RawMessage `json:"stages"`
	} `json:"data"`
}

// Parse reads stages from either a raw download ({"data":{"stages":[...]}})
// or a bare stage array. Unknown fields are ignored.
func Parse(r io.Reader) ([]domain.Stage, error) {
	raw, err := stagesJSON(r)
	if err != nil {
		return nil, err
	}

	var stages []domain.Stage
	if err := json.Unmarshal(raw, &stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	if err := Validate(stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func stagesJSON(r io.Reader) (json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read season: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoStages
	}
	if data[0] == '[' {
		return data, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode season envelope: %w", err)
	}
	if len(env.Data.Stages) == 0 || string(env.Data.Stages) == "null" {
		return nil, ErrNoStages
	}
	return env.Data.Stages, nil
}

// Validate checks the shape of every concluded match. Scheduled matches may
// still have empty competitor slots and are left alone.
func Validate(stages []domain.Stage) error {
	for _, stage := range stages {
		for _, m := range stage.Matches {
			if !m.Concluded() {
				continue
			}
			if len(m.Competitors) != 2 {
				return fmt.Errorf("%w: stage %q match %d has %d competitors", ErrInvalidSeason, stage.Slug, m.ID, len(m.Competitors))
			}
			for i, c := range m.Competitors {
				if c == nil {
					return fmt.Errorf("%w: stage %q match %d competitor %d is empty", ErrInvalidSeason, stage.Slug, m.ID, i)
				}
				if c.Handle == "" {
					return fmt.Errorf("%w: stage %q match %d competitor %d has no handle", ErrInvalidSeason, stage.Slug, m.ID, i)
				}
			}
			if m.Winner == nil {
				return fmt.Errorf("%w: stage %q match %d has no winner", ErrInvalidSeason, stage.Slug, m.ID)
			}
		}
	}
	return nil
}

// ExtractStages copies the stage array out of a raw download without
// re-encoding it.
func ExtractStages(in io.Reader, out io.Writer) error {
	raw, err := stagesJSON(in)
	if err != nil {
		return err
	}
	if _, err := out.Write(raw); err != nil {
		return fmt.Errorf("write stages: %w", err)
	}
	return nil
}

type Loader struct {
	logger zerolog.Logger
}

func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger}
}

func (l *Loader) LoadFile(ctx context.Context, path string) (*Season, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open season: %w", err)
	}
	defer f.Close()

	stages, err := Parse(f)
	if err != nil {
		l.logger.Error().Err(err).Str("path", path).Msg("failed to parse season")
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	loadID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate load id: %w", err)
	}

	s := &Season{
		Name:   Name(path),
		LoadID: loadID,
		Path:   path,
		Stages: stages,
	}

	l.logger.Info().
		Str("season", s.Name).
		Str("load_id", s.LoadID).
		Int("stage_count", len(stages)).
		Int("match_count", matchCount(stages)).
		Msg("season loaded")

	return s, nil
}

// LoadDir loads every *.json file in dir concurrently. Seasons are returned
// sorted by name.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*Season, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}

	seasons := make([]*Season, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.SeasonLoadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			s, err := l.LoadFile(gCtx, path)
			if err != nil {
				return err
			}
			seasons[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(seasons))
	for _, s := range seasons {
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%w: %q from %s and %s", ErrDuplicateSeason, s.Name, prev, s.Path)
		}
		seen[s.Name] = s.Path
	}

	sort.Slice(seasons, func(i, j int) bool { return seasons[i].Name < seasons[j].Name })

	l.logger.Debug().Str("dir", dir).Int("season_count", len(seasons)).Msg("season directory loaded")
	return seasons, nil
}

// Name derives a season name from its file name: "data/2019.json" -> "2019".
// A "stages-" prefix left by the transform command is dropped.
func Name(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimPrefix(base, "stages-")
}

func matchCount(stages []domain.Stage) int {
	n := 0
	for _, s := range stages {
		n += len(s.Matches)
	}
	return n
}
