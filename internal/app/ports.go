package app

import (
	"context"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
)

// Store is the durable grading state. RunInTx executes fn within one
// serializable-or-stronger transaction: every write fn performs commits
// atomically or not at all. No override sets or aggregates may be cached
// across transaction boundaries.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of storage operations available inside a transaction.
type Tx interface {
	// Games and board slots.
	Game(ctx context.Context, gameID string) (*domain.Game, error)
	Slot(ctx context.Context, gameID, questionID string) (*domain.GameQuestionSlot, error)
	// ClaimSlot inserts the slot unless one already exists for its
	// (game, question) pair; the bool reports whether the insert won.
	// Concurrent grades for the same slot race through this claim.
	ClaimSlot(ctx context.Context, slot *domain.GameQuestionSlot) (bool, error)
	MarkSlotCorrect(ctx context.Context, gameID, questionID string, points int) error
	AddGameScore(ctx context.Context, gameID string, delta int) error
	// GameSlotPoints sums points over the game's correct slots, for
	// invariant checks against Game.CurrentScore.
	GameSlotPoints(ctx context.Context, gameID string) (int, error)

	// Overrides.
	Overrides(ctx context.Context, questionID string) ([]domain.AnswerOverride, error)
	// UpsertOverride inserts o or returns the existing row for the same
	// (question, normalized text) pair, so retried approvals never produce
	// duplicate override rows.
	UpsertOverride(ctx context.Context, o *domain.AnswerOverride) (*domain.AnswerOverride, error)

	// Verdicts.
	InsertVerdict(ctx context.Context, v *domain.AnswerVerdict) error
	// SetVerdictOutcome flips correct/points on an existing verdict. The raw
	// answer text is never rewritten; this is the one sanctioned mutation.
	SetVerdictOutcome(ctx context.Context, verdictID int64, correct bool, points int) error
	LatestVerdict(ctx context.Context, userID, questionID string) (*domain.AnswerVerdict, error)
	// IncorrectVerdicts returns the user's verdicts for the question still
	// marked incorrect, oldest first.
	IncorrectVerdicts(ctx context.Context, userID, questionID string) ([]domain.AnswerVerdict, error)
	HasCorrectPracticeVerdict(ctx context.Context, userID, questionID string) (bool, error)
	HasPracticeVerdict(ctx context.Context, userID, questionID string) (bool, error)
	PracticeVerdictsByCategory(ctx context.Context, userID, categoryID string) ([]domain.AnswerVerdict, error)

	// Category progress.
	Progress(ctx context.Context, userID, categoryID string) (*domain.CategoryProgress, error)
	PutProgress(ctx context.Context, p *domain.CategoryProgress) error

	// Disputes.
	InsertDispute(ctx context.Context, d *domain.Dispute) error
	DisputeByID(ctx context.Context, disputeID int64) (*domain.Dispute, error)
	UpdateDispute(ctx context.Context, d *domain.Dispute) error
	PendingDisputes(ctx context.Context) ([]domain.Dispute, error)
}

// QuestionRepository loads immutable question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// Identity resolves a caller to their role. Dispute resolution and override
// curation require domain.RoleAdmin.
type Identity interface {
	Resolve(ctx context.Context, userID string) (domain.User, error)
}

// AchievementNotifier is the external achievement-evaluation collaborator.
// It is fire-and-forget: failures are logged, never propagated, and never
// roll back grading.
type AchievementNotifier interface {
	Notify(ctx context.Context, userID, event string, payload map[string]any) ([]string, error)
}
