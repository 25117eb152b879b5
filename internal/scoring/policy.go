package scoring

import "github.com/btuckerc/jeopardy-sub005/internal/domain"

// Policy maps a grading context to canonical points. It is pure and
// idempotent: the retroactive pass rescores historical verdicts with it, so
// identical inputs must always yield identical output.
//
// Live-game mode scores by the value the player actually saw (a Final wager
// may differ from the question's face value); practice mode scores by the
// canonical face value, with a fixed normalized value for Final-round
// questions since there is no wager.
type Policy struct {
	FinalValue   int // substituted for FINAL-round questions in practice mode
	DefaultValue int // fallback when a face value is absent
}

// DefaultPolicy returns the standard board values.
func DefaultPolicy() Policy {
	return Policy{FinalValue: 1000, DefaultValue: 200}
}

// PointsFor computes the canonical point value for one verdict.
func (p Policy) PointsFor(mode domain.Mode, round domain.Round, faceValue, displayedValue int, correct bool) int {
	if !correct {
		return 0
	}
	if mode == domain.ModeGame {
		if displayedValue > 0 {
			return displayedValue
		}
		if faceValue > 0 {
			return faceValue
		}
		return p.DefaultValue
	}
	if round == domain.RoundFinal {
		return p.FinalValue
	}
	if faceValue > 0 {
		return faceValue
	}
	return p.DefaultValue
}
