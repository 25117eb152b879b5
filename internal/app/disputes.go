package app

import (
	"context"
	"strings"

	"github.com/btuckerc/jeopardy-sub005/internal/answer"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
)

// SubmitDispute opens a PENDING dispute for the user's latest verdict on a
// question. Only an incorrect verdict can be disputed; a correct one is
// rejected at submission, not silently accepted.
func (e *Engine) SubmitDispute(ctx context.Context, userID, questionID, rawAnswer, gameID string) (int64, error) {
	if userID == "" || questionID == "" {
		return 0, domain.Validationf("userId and questionId are required")
	}
	if strings.TrimSpace(rawAnswer) == "" {
		return 0, domain.Validationf("disputed answer must not be empty")
	}
	if _, err := e.questions.GetQuestion(ctx, questionID); err != nil {
		return 0, err
	}

	var disputeID int64
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		last, err := tx.LatestVerdict(ctx, userID, questionID)
		if err != nil {
			return err
		}
		if last == nil {
			return domain.NotFoundf("no verdict to dispute for question %s", questionID)
		}
		if last.Correct {
			return domain.Conflictf("latest verdict for question %s is already correct", questionID)
		}

		d := &domain.Dispute{
			UserID:          userID,
			QuestionID:      questionID,
			GameID:          gameID,
			SubmittedAnswer: rawAnswer,
			Status:          domain.DisputePending,
			CreatedAt:       e.now(),
		}
		if err := tx.InsertDispute(ctx, d); err != nil {
			return err
		}
		disputeID = d.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return disputeID, nil
}

// ApproveDispute resolves a PENDING dispute in the user's favor: it upserts
// an override for the accepted text, marks the dispute APPROVED, and runs the
// retroactive recomputation pass for the disputing user and question, all in
// one transaction, so an override can never go live without its repair.
//
// overrideText, when non-empty, replaces the disputant's submitted answer as
// the override text.
func (e *Engine) ApproveDispute(ctx context.Context, disputeID int64, resolverID, note, overrideText string) error {
	if err := e.requireResolver(ctx, resolverID); err != nil {
		return err
	}

	var (
		repaired []repairedGame
		userID   string
	)
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		d, err := tx.DisputeByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.NotFoundf("dispute %d", disputeID)
		}
		if d.Status != domain.DisputePending {
			return domain.Conflictf("dispute %d already %s", disputeID, d.Status)
		}

		q, err := e.questions.GetQuestion(ctx, d.QuestionID)
		if err != nil {
			return err
		}

		text := overrideText
		if text == "" {
			text = d.SubmittedAnswer
		}
		normalized := answer.Normalize(text)
		if normalized == "" {
			return domain.Validationf("override text normalizes to empty")
		}

		now := e.now()
		override, err := tx.UpsertOverride(ctx, &domain.AnswerOverride{
			QuestionID: d.QuestionID,
			Text:       normalized,
			Source:     domain.SourceDispute,
			CreatedBy:  resolverID,
			Note:       note,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		d.Status = domain.DisputeApproved
		d.ResolvedBy = resolverID
		d.ResolutionNote = note
		d.OverrideID = override.ID
		d.ResolvedAt = now
		if err := tx.UpdateDispute(ctx, d); err != nil {
			return err
		}

		userID = d.UserID
		repaired, err = e.recompute(ctx, tx, d.UserID, q)
		return err
	})
	if err != nil {
		return err
	}

	for _, g := range repaired {
		e.feed.Publish(g.gameID, g.score)
	}
	e.notify(ctx, userID, EventDisputeApproved, map[string]any{
		"disputeId": disputeID,
	})
	return nil
}

// RejectDispute resolves a PENDING dispute against the user. No other side
// effects; re-submission constitutes a new dispute.
func (e *Engine) RejectDispute(ctx context.Context, disputeID int64, resolverID, note string) error {
	if err := e.requireResolver(ctx, resolverID); err != nil {
		return err
	}
	return e.store.RunInTx(ctx, func(tx Tx) error {
		d, err := tx.DisputeByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.NotFoundf("dispute %d", disputeID)
		}
		if d.Status != domain.DisputePending {
			return domain.Conflictf("dispute %d already %s", disputeID, d.Status)
		}
		d.Status = domain.DisputeRejected
		d.ResolvedBy = resolverID
		d.ResolutionNote = note
		d.ResolvedAt = e.now()
		return tx.UpdateDispute(ctx, d)
	})
}

// PendingDisputes lists the resolver queue, oldest first.
func (e *Engine) PendingDisputes(ctx context.Context) ([]domain.Dispute, error) {
	var out []domain.Dispute
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.PendingDisputes(ctx)
		return err
	})
	return out, err
}

// AddOverride records an admin-curated accepted answer variant. Unlike a
// dispute approval it triggers no recompute pass: there is no single
// disputant to scope one to, so only future grades and approvals see it.
func (e *Engine) AddOverride(ctx context.Context, adminID, questionID, text, note string) (domain.AnswerOverride, error) {
	if err := e.requireResolver(ctx, adminID); err != nil {
		return domain.AnswerOverride{}, err
	}
	if _, err := e.questions.GetQuestion(ctx, questionID); err != nil {
		return domain.AnswerOverride{}, err
	}
	normalized := answer.Normalize(text)
	if normalized == "" {
		return domain.AnswerOverride{}, domain.Validationf("override text normalizes to empty")
	}

	var out domain.AnswerOverride
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		override, err := tx.UpsertOverride(ctx, &domain.AnswerOverride{
			QuestionID: questionID,
			Text:       normalized,
			Source:     domain.SourceAdmin,
			CreatedBy:  adminID,
			Note:       note,
			CreatedAt:  e.now(),
		})
		if err != nil {
			return err
		}
		out = *override
		return nil
	})
	return out, err
}

// ListOverrides returns every accepted variant recorded for a question.
func (e *Engine) ListOverrides(ctx context.Context, questionID string) ([]domain.AnswerOverride, error) {
	var out []domain.AnswerOverride
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Overrides(ctx, questionID)
		return err
	})
	return out, err
}

func (e *Engine) requireResolver(ctx context.Context, userID string) error {
	u, err := e.identity.Resolve(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role != domain.RoleAdmin {
		return domain.Forbiddenf("user %s cannot resolve disputes", userID)
	}
	return nil
}
