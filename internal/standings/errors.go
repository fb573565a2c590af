package standings

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidExponent   = errors.New("exponent must be a positive finite number")
	ErrMissingPoints     = errors.New("concluded game has no points")
	ErrMalformedMatch    = errors.New("malformed match")
	ErrCompetitorMissing = errors.New("team is not a competitor in match")
)

// MatchError identifies the match (and game, when known) that could not
// be aggregated.
type MatchError struct {
	Stage   string
	MatchID int
	Game    int // index into Match.Games, -1 when the fault is match level
	Err     error
}

func (e *MatchError) Error() string {
	if e.Game >= 0 {
		return fmt.Sprintf("stage %q match %d game %d: %v", e.Stage, e.MatchID, e.Game, e.Err)
	}
	return fmt.Sprintf("stage %q match %d: %v", e.Stage, e.MatchID, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}
