package standings

import (
	"cmp"
	"fmt"
	"slices"

	"pythag-league/internal/domain"
)

// stagedMatch remembers which stage a flattened match came from so errors
// can point at it.
type stagedMatch struct {
	stage string
	match domain.Match
}

type tally struct {
	matchesWon    int
	matchesLost   int
	gamesWon      float64
	gamesLost     float64
	pointsEarned  float64
	pointsAllowed float64
}

type accumulator struct {
	info    domain.Competitor
	matches []stagedMatch
	tally   tally
}

// ComputeStandings aggregates every eligible match in stages into one row
// per team, ordered by win differential. Rows with equal differential keep
// the order in which their team first appeared; there is no further
// tie-break.
//
// A team with nothing for and nothing against gets NaN only with a fixed
// exponent. With RecalculateExponent the derived exponent is 0 and the
// expectation comes out as exactly 0.5, so TeamResult.HasExpectation does
// not flag it; check HasData for that case.
func ComputeStandings(stages []domain.Stage, opts Options) ([]domain.TeamResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	matches := eligibleMatches(stages, opts)

	teams, err := groupByTeam(matches)
	if err != nil {
		return nil, err
	}

	results := make([]domain.TeamResult, 0, len(teams))
	for _, acc := range teams {
		t := tally{}
		for _, sm := range acc.matches {
			t, err = tallyMatch(t, sm, acc.info.ID)
			if err != nil {
				return nil, err
			}
		}
		acc.tally = t
		results = append(results, result(acc, opts))
	}

	slices.SortStableFunc(results, func(a, b domain.TeamResult) int {
		return cmp.Compare(b.Differential(), a.Differential())
	})

	return results, nil
}

func eligibleMatches(stages []domain.Stage, opts Options) []stagedMatch {
	var out []stagedMatch
	for _, stage := range stages {
		if !opts.IncludePreseason && stage.Slug == domain.SlugPreseason {
			continue
		}
		for _, m := range stage.Matches {
			if eligible(m, opts) {
				out = append(out, stagedMatch{stage: stage.Slug, match: m})
			}
		}
	}
	return out
}

func eligible(m domain.Match, opts Options) bool {
	if !m.Concluded() {
		return false
	}
	for _, g := range m.Games {
		if !g.Concluded() {
			return false
		}
	}
	return m.OpenMatch() || opts.IncludePlayoffs
}

// groupByTeam returns accumulators in order of first reference.
func groupByTeam(matches []stagedMatch) ([]*accumulator, error) {
	index := make(map[string]*accumulator)
	var ordered []*accumulator

	for _, sm := range matches {
		if err := checkCompetitors(sm); err != nil {
			return nil, err
		}
		for _, c := range sm.match.Competitors {
			acc, ok := index[c.Handle]
			if !ok {
				acc = &accumulator{info: *c}
				index[c.Handle] = acc
				ordered = append(ordered, acc)
			}
			acc.matches = append(acc.matches, sm)
		}
	}
	return ordered, nil
}

func checkCompetitors(sm stagedMatch) error {
	m := sm.match
	if len(m.Competitors) != 2 || m.Competitors[0] == nil || m.Competitors[1] == nil {
		return matchErr(sm, -1, fmt.Errorf("%w: want 2 competitors, got %d", ErrMalformedMatch, countCompetitors(m)))
	}
	return nil
}

func countCompetitors(m domain.Match) int {
	n := 0
	for _, c := range m.Competitors {
		if c != nil {
			n++
		}
	}
	return n
}

// indexOfCompetitor reports whether teamID is listed first (0) or second (1)
// in the match. Game points use the same order.
func indexOfCompetitor(m domain.Match, teamID int) (int, error) {
	for i, c := range m.Competitors {
		if c != nil && c.ID == teamID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: team %d", ErrCompetitorMissing, teamID)
}

func tallyMatch(t tally, sm stagedMatch, teamID int) (tally, error) {
	m := sm.match

	teamIndex, err := indexOfCompetitor(m, teamID)
	if err != nil {
		return t, matchErr(sm, -1, err)
	}
	otherIndex := 1 - teamIndex

	for i, g := range m.Games {
		if g.Points == nil {
			return t, matchErr(sm, i, ErrMissingPoints)
		}
		if len(g.Points) != 2 {
			return t, matchErr(sm, i, fmt.Errorf("%w: want 2 point values, got %d", ErrMalformedMatch, len(g.Points)))
		}
		t.pointsEarned += g.Points[teamIndex]
		t.pointsAllowed += g.Points[otherIndex]
	}

	if len(m.Scores) != 2 {
		return t, matchErr(sm, -1, fmt.Errorf("%w: want 2 scores, got %d", ErrMalformedMatch, len(m.Scores)))
	}
	if m.Winner == nil {
		return t, matchErr(sm, -1, fmt.Errorf("%w: concluded match has no winner", ErrMalformedMatch))
	}
	if _, err := indexOfCompetitor(m, m.Winner.ID); err != nil {
		return t, matchErr(sm, -1, fmt.Errorf("%w: winner %d is not a competitor", ErrMalformedMatch, m.Winner.ID))
	}

	// Games come from the larger and smaller final score, not from the
	// team's own slot. This matches best-of-N scoring where the winner
	// always holds the larger score.
	hi := float64(max(m.Scores[0], m.Scores[1]))
	lo := float64(min(m.Scores[0], m.Scores[1]))

	if m.Winner.ID == teamID {
		t.matchesWon++
		t.gamesWon += hi
		t.gamesLost += lo
	} else {
		t.matchesLost++
		t.gamesWon += lo
		t.gamesLost += hi
	}
	return t, nil
}

func result(acc *accumulator, opts Options) domain.TeamResult {
	t := acc.tally
	total := t.matchesWon + t.matchesLost

	pf, pa := t.gamesWon, t.gamesLost
	if opts.UsePoints {
		pf, pa = t.pointsEarned, t.pointsAllowed
	}

	exp := opts.Exponent
	if opts.RecalculateExponent {
		exp = pythagenpat(pf, pa, total)
	}
	pct := expectation(pf, pa, exp)

	return domain.TeamResult{
		Team:               acc.info,
		Name:               acc.info.Name,
		TotalMatches:       total,
		MatchesWon:         t.matchesWon,
		MatchesLost:        t.matchesLost,
		ExpectedPercentage: pct,
		ExpectedWins:       pct * float64(total),
		GamesWon:           t.gamesWon,
		GamesLost:          t.gamesLost,
		PointsEarned:       t.pointsEarned,
		PointsAllowed:      t.pointsAllowed,
	}
}

func matchErr(sm stagedMatch, game int, err error) error {
	return &MatchError{Stage: sm.stage, MatchID: sm.match.ID, Game: game, Err: err}
}
