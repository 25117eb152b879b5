package app

import (
	"context"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
)

type repairedGame struct {
	gameID string
	score  int
}

// Recompute runs the retroactive pass for one user and question in its own
// transaction. Dispute approval invokes the pass automatically; this entry
// point serves maintenance after admin curation. Safe to call repeatedly:
// with no new override the pass is a no-op.
func (e *Engine) Recompute(ctx context.Context, userID, questionID string) error {
	q, err := e.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	var repaired []repairedGame
	err = e.store.RunInTx(ctx, func(tx Tx) error {
		repaired, err = e.recompute(ctx, tx, userID, q)
		return err
	})
	if err != nil {
		return err
	}
	for _, g := range repaired {
		e.feed.Publish(g.gameID, g.score)
	}
	return nil
}

// recompute is the retroactive recomputation pass, scoped to one user and one
// question and always run inside the caller's transaction. Every verdict for
// the pair still marked incorrect is re-evaluated against the full current
// override set; flips are rescored from the context preserved on the row,
// dependent game slots and scores are repaired, and the category rollup is
// rebuilt from scratch. Verdicts already correct are untouched, which also
// makes a second pass with no new override a no-op.
func (e *Engine) recompute(ctx context.Context, tx Tx, userID string, q domain.Question) ([]repairedGame, error) {
	overrides, err := tx.Overrides(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	texts := overrideTexts(overrides)

	verdicts, err := tx.IncorrectVerdicts(ctx, userID, q.ID)
	if err != nil {
		return nil, err
	}

	// Practice points follow the same firstAward predicate as grading:
	// a flip earns points only if no correct practice verdict exists yet.
	canAward, err := e.firstAward(ctx, tx, userID, q.ID)
	if err != nil {
		return nil, err
	}

	var repaired []repairedGame
	flipped := false
	for _, v := range verdicts {
		if !e.matcher.Accepted(v.RawAnswer, q.CanonicalAnswer, texts) {
			continue
		}
		flipped = true

		points := e.policy.PointsFor(v.Mode, v.Round, v.FaceValue, v.DisplayedValue, true)

		awarded := 0
		if v.GameID != "" {
			awarded, err = e.repairGameSlot(ctx, tx, v, points)
			if err != nil {
				return nil, err
			}
			if awarded > 0 {
				game, err := tx.Game(ctx, v.GameID)
				if err != nil {
					return nil, err
				}
				repaired = append(repaired, repairedGame{gameID: v.GameID, score: game.CurrentScore})
			}
		} else if canAward {
			awarded = points
			canAward = false
		}

		if err := tx.SetVerdictOutcome(ctx, v.ID, true, awarded); err != nil {
			return nil, err
		}
	}

	if flipped {
		if err := e.rebuildProgress(ctx, tx, userID, q.CategoryID); err != nil {
			return nil, err
		}
	}
	return repaired, nil
}

// repairGameSlot marks the verdict's board slot correct and moves the game
// score, unless the slot already scored (a later correct answer, or an
// earlier flip in this same pass).
func (e *Engine) repairGameSlot(ctx context.Context, tx Tx, v domain.AnswerVerdict, points int) (int, error) {
	slot, err := tx.Slot(ctx, v.GameID, v.QuestionID)
	if err != nil {
		return 0, err
	}
	if slot == nil {
		return 0, domain.Consistencyf("verdict %d references game %s but no slot exists", v.ID, v.GameID)
	}
	if slot.Correct {
		return 0, nil
	}
	if err := tx.MarkSlotCorrect(ctx, v.GameID, v.QuestionID, points); err != nil {
		return 0, err
	}
	if err := tx.AddGameScore(ctx, v.GameID, points); err != nil {
		return 0, err
	}
	if err := e.checkGameScore(ctx, tx, v.GameID); err != nil {
		return 0, err
	}
	return points, nil
}

// rebuildProgress recomputes CategoryProgress for (user, category) by
// re-aggregating every practice verdict in the category, not by patching the
// flipped ones; incremental patches would compound drift across repeated
// disputes on the same category. Stored verdict points already encode the
// first-correct-only rule, so the rollup is a straight fold.
func (e *Engine) rebuildProgress(ctx context.Context, tx Tx, userID, categoryID string) error {
	verdicts, err := tx.PracticeVerdictsByCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	attempted := make(map[string]struct{})
	correct := make(map[string]struct{})
	points := 0
	for _, v := range verdicts {
		attempted[v.QuestionID] = struct{}{}
		if v.Correct {
			correct[v.QuestionID] = struct{}{}
		}
		points += v.Points
	}

	rebuilt := &domain.CategoryProgress{
		UserID:     userID,
		CategoryID: categoryID,
		Total:      len(attempted),
		Correct:    len(correct),
		Points:     points,
		UpdatedAt:  e.now(),
	}

	current, err := tx.Progress(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if current != nil &&
		current.Total == rebuilt.Total &&
		current.Correct == rebuilt.Correct &&
		current.Points == rebuilt.Points {
		return nil
	}
	return tx.PutProgress(ctx, rebuilt)
}
