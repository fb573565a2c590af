package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const (
	StatusConcluded = "CONCLUDED"

	TournamentOpenMatches = "OPEN_MATCHES"

	SlugPreseason = "preseason"
)

type Stage struct {
	ID      int     `json:"id"`
	Slug    string  `json:"slug"`
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

type Tournament struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type Match struct {
	ID          int           `json:"id"`
	Status      string        `json:"status"`
	Tournament  Tournament    `json:"tournament"`
	Competitors []*Competitor `json:"competitors"`
	Games       []Game        `json:"games"`
	Scores      []Score       `json:"scores"`
	Winner      *Competitor   `json:"winner"`
}

type Game struct {
	ID     int       `json:"id"`
	Number int       `json:"number"`
	Status string    `json:"status"`
	Points []float64 `json:"points"` // indexed like Match.Competitors
}

type Competitor struct {
	ID     int    `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
}

// Score is a final map tally. The league feed sends {"value": n}; exported
// stage files sometimes flatten it to a bare number, so both are accepted.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("score: %w", err)
		}
		if wrapped.Value == nil {
			return fmt.Errorf("score: missing value")
		}
		*s = Score(*wrapped.Value)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = Score(v)
	return nil
}

func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value float64 `json:"value"`
	}{Value: float64(s)})
}

func (m Match) Concluded() bool {
	return m.Status == StatusConcluded
}

func (m Match) OpenMatch() bool {
	return m.Tournament.Type == TournamentOpenMatches
}

func (g Game) Concluded() bool {
	return g.Status == StatusConcluded
}

// TeamResult is one row of a standings table.
type TeamResult struct {
	Team               Competitor
	Name               string
	TotalMatches       int
	MatchesWon         int
	MatchesLost        int
	ExpectedPercentage float64 // NaN with a fixed exponent and no games or points; 0.5 with a derived exponent
	ExpectedWins       float64
	GamesWon           float64
	GamesLost          float64
	PointsEarned       float64
	PointsAllowed      float64
}

func (r TeamResult) Differential() int {
	return r.MatchesWon - r.MatchesLost
}

// Delta is how many more matches the team was expected to win than it did.
// Positive means the record undersells the team.
func (r TeamResult) Delta() float64 {
	return r.ExpectedWins - float64(r.MatchesWon)
}

// HasData reports whether the quantities fed to the formula were non-zero.
// It catches the no-data case under either exponent mode.
func (r TeamResult) HasData(usePoints bool) bool {
	if usePoints {
		return r.PointsEarned+r.PointsAllowed > 0
	}
	return r.GamesWon+r.GamesLost > 0
}

func (r TeamResult) HasExpectation() bool {
	return !math.IsNaN(r.ExpectedPercentage) && !math.IsInf(r.ExpectedPercentage, 0)
}
