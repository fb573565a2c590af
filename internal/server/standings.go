package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"pythag-league/internal/config"
	"pythag-league/internal/constants"
	"pythag-league/internal/domain"
	"pythag-league/internal/middleware"
	"pythag-league/internal/service"
	"pythag-league/internal/standings"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

var errBadQuery = errors.New("bad query parameter")

type StandingsServer struct {
	svc    *service.StandingsService
	cfg    *config.Config
	logger zerolog.Logger
}

func NewStandingsServer(svc *service.StandingsService, cfg *config.Config, logger zerolog.Logger) *StandingsServer {
	return &StandingsServer{svc: svc, cfg: cfg, logger: logger}
}

type teamResponse struct {
	Handle             string   `json:"handle"`
	Name               string   `json:"name"`
	Icon               string   `json:"icon,omitempty"`
	TotalMatches       int      `json:"totalMatches"`
	MatchesWon         int      `json:"matchesWon"`
	MatchesLost        int      `json:"matchesLost"`
	ExpectedPercentage *float64 `json:"expectedPercentage"` // null when there is not enough data
	ExpectedWins       *float64 `json:"expectedWins"`
	Delta              *float64 `json:"delta"`
	GamesWon           float64  `json:"gamesWon"`
	GamesLost          float64  `json:"gamesLost"`
	PointsEarned       float64  `json:"pointsEarned"`
	PointsAllowed      float64  `json:"pointsAllowed"`
}

type standingsResponse struct {
	Season  string            `json:"season"`
	Options standings.Options `json:"options"`
	Teams   []teamResponse    `json:"teams"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *StandingsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /seasons", s.listSeasons)
	mux.HandleFunc("GET /seasons/{season}/standings", s.getStandings)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{constants.RequestIDHeader},
	})

	return middleware.RequestID(s.logger)(middleware.Recover(c.Handler(mux)))
}

func (s *StandingsServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *StandingsServer) listSeasons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"seasons": s.svc.Seasons()})
}

func (s *StandingsServer) getStandings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	name := r.PathValue("season")

	opts, err := s.parseOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.svc.Standings(ctx, name, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	teams := make([]teamResponse, len(rows))
	for i, row := range rows {
		teams[i] = toTeamResponse(row)
	}

	writeJSON(w, http.StatusOK, standingsResponse{Season: name, Options: opts, Teams: teams})
}

// parseOptions starts from the configured defaults, or from a named preset,
// and applies any explicit toggles on top.
func (s *StandingsServer) parseOptions(q url.Values) (standings.Options, error) {
	opts := s.svc.Defaults()
	if name := q.Get("preset"); name != "" {
		preset, err := s.svc.Preset(name)
		if err != nil {
			return opts, err
		}
		opts = preset
	}

	toggles := []struct {
		key string
		dst *bool
	}{
		{"includePreseason", &opts.IncludePreseason},
		{"includePlayoffs", &opts.IncludePlayoffs},
		{"usePoints", &opts.UsePoints},
		{"recalculateExponent", &opts.RecalculateExponent},
	}
	for _, t := range toggles {
		v := q.Get(t.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %s=%q is not a boolean", errBadQuery, t.key, v)
		}
		*t.dst = b
	}

	if v := q.Get("exponent"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return opts, fmt.Errorf("%w: exponent=%q is not a number", errBadQuery, v)
		}
		opts.Exponent = f
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func toTeamResponse(r domain.TeamResult) teamResponse {
	return teamResponse{
		Handle:             r.Team.Handle,
		Name:               r.Name,
		Icon:               r.Team.Icon,
		TotalMatches:       r.TotalMatches,
		MatchesWon:         r.MatchesWon,
		MatchesLost:        r.MatchesLost,
		ExpectedPercentage: finite(r.ExpectedPercentage),
		ExpectedWins:       finite(r.ExpectedWins),
		Delta:              finite(r.Delta()),
		GamesWon:           r.GamesWon,
		GamesLost:          r.GamesLost,
		PointsEarned:       r.PointsEarned,
		PointsAllowed:      r.PointsAllowed,
	}
}

// finite maps NaN and infinities to nil; encoding/json cannot encode them.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func statusFor(err error) int {
	var matchErr *standings.MatchError
	switch {
	case errors.Is(err, service.ErrSeasonNotFound), errors.Is(err, service.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadQuery), errors.Is(err, standings.ErrInvalidExponent):
		return http.StatusBadRequest
	case errors.As(err, &matchErr), errors.Is(err, standings.ErrMalformedMatch), errors.Is(err, standings.ErrMissingPoints):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *StandingsServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("standings request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("standings request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
