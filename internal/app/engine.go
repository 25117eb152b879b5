package app

import (
	"context"
	"strings"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/answer"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/btuckerc/jeopardy-sub005/internal/scoring"
)

// Engine contains the grading and dispute use cases.
type Engine struct {
	store     Store
	questions QuestionRepository
	identity  Identity
	matcher   answer.Matcher
	policy    scoring.Policy
	notifier  AchievementNotifier
	feed      *ScoreFeed
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatcher replaces the default match tolerance table.
func WithMatcher(m answer.Matcher) Option { return func(e *Engine) { e.matcher = m } }

// WithPolicy replaces the default scoring policy.
func WithPolicy(p scoring.Policy) Option { return func(e *Engine) { e.policy = p } }

// WithNotifier installs the achievement collaborator.
func WithNotifier(n AchievementNotifier) Option { return func(e *Engine) { e.notifier = n } }

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store Store, questions QuestionRepository, identity Identity, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		questions: questions,
		identity:  identity,
		matcher:   answer.DefaultMatcher(),
		policy:    scoring.DefaultPolicy(),
		notifier:  nopNotifier{},
		feed:      NewScoreFeed(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Feed exposes the live score hub for the transport layer.
func (e *Engine) Feed() *ScoreFeed { return e.feed }

// GameScore reads a game's current score, for the initial feed snapshot.
func (e *Engine) GameScore(ctx context.Context, gameID string) (domain.GameScore, error) {
	var out domain.GameScore
	err := e.store.RunInTx(ctx, func(tx Tx) error {
		game, err := tx.Game(ctx, gameID)
		if err != nil {
			return err
		}
		out = domain.GameScore{GameID: gameID, CurrentScore: game.CurrentScore, UpdatedAt: e.now()}
		return nil
	})
	return out, err
}

// GradeRequest carries one answer to be judged.
type GradeRequest struct {
	UserID         string       `json:"userId"`
	QuestionID     string       `json:"questionId"`
	Mode           domain.Mode  `json:"mode"`
	Round          domain.Round `json:"round"`
	RawAnswer      string       `json:"rawAnswer"`
	GameID         string       `json:"gameId,omitempty"`
	DisplayedValue int          `json:"displayedValue,omitempty"`
}

func (r GradeRequest) validate() error {
	if r.UserID == "" || r.QuestionID == "" {
		return domain.Validationf("userId and questionId are required")
	}
	if !domain.ValidMode(r.Mode) {
		return domain.Validationf("unknown mode %q", r.Mode)
	}
	if !domain.ValidRound(r.Round) {
		return domain.Validationf("unknown round %q", r.Round)
	}
	if strings.TrimSpace(r.RawAnswer) == "" {
		return domain.Validationf("answer must not be empty")
	}
	if r.Mode == domain.ModeGame && r.GameID == "" {
		return domain.Validationf("game mode requires a gameId")
	}
	return nil
}

// Grade judges one raw answer and atomically writes the verdict plus every
// dependent aggregate. Retrying with identical inputs is safe: points are
// awarded at most once per slot in game mode and at most once per question
// in practice mode.
func (e *Engine) Grade(ctx context.Context, req GradeRequest) (domain.GradeResult, error) {
	if err := req.validate(); err != nil {
		return domain.GradeResult{}, err
	}

	q, err := e.questions.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		return domain.GradeResult{}, err
	}

	var (
		result    domain.GradeResult
		gameScore int
		scored    bool
	)
	err = e.store.RunInTx(ctx, func(tx Tx) error {
		overrides, err := tx.Overrides(ctx, q.ID)
		if err != nil {
			return err
		}
		correct := e.matcher.Accepted(req.RawAnswer, q.CanonicalAnswer, overrideTexts(overrides))

		var awarded int
		if req.Mode == domain.ModeGame {
			awarded, gameScore, scored, err = e.gradeGame(ctx, tx, req, q, correct)
		} else {
			awarded, err = e.gradePractice(ctx, tx, req, q, correct)
		}
		if err != nil {
			return err
		}

		result = domain.GradeResult{
			Correct:    correct,
			Points:     awarded,
			CanDispute: !correct,
		}
		return nil
	})
	if err != nil {
		return domain.GradeResult{}, err
	}

	if scored {
		e.feed.Publish(req.GameID, gameScore)
	}
	result.Achievements = e.notify(ctx, req.UserID, EventQuestionAnswered, map[string]any{
		"questionId": req.QuestionID,
		"correct":    result.Correct,
		"points":     result.Points,
	})
	return result, nil
}

// gradeGame handles the live-game fan-out: claim the board slot, bump the
// game score on a first correct claim, append the verdict.
func (e *Engine) gradeGame(ctx context.Context, tx Tx, req GradeRequest, q domain.Question, correct bool) (awarded, gameScore int, scored bool, err error) {
	game, err := tx.Game(ctx, req.GameID)
	if err != nil {
		return 0, 0, false, err
	}
	if game.OwnerID != req.UserID {
		return 0, 0, false, domain.Forbiddenf("game %s is not owned by user %s", req.GameID, req.UserID)
	}

	points := e.policy.PointsFor(domain.ModeGame, req.Round, q.FaceValue, req.DisplayedValue, correct)

	now := e.now()
	slot := &domain.GameQuestionSlot{
		GameID:     req.GameID,
		QuestionID: q.ID,
		Answered:   true,
		Correct:    correct,
		Points:     points,
		AnsweredAt: now,
	}
	claimed, err := tx.ClaimSlot(ctx, slot)
	if err != nil {
		return 0, 0, false, err
	}

	// Only the verdict that claimed the slot may move the score; a racing
	// duplicate observes the existing slot and awards nothing.
	gameScore = game.CurrentScore
	if claimed && correct {
		if err := tx.AddGameScore(ctx, req.GameID, points); err != nil {
			return 0, 0, false, err
		}
		awarded = points
		gameScore += points
		scored = true
		if err := e.checkGameScore(ctx, tx, req.GameID); err != nil {
			return 0, 0, false, err
		}
	}

	v := &domain.AnswerVerdict{
		UserID:         req.UserID,
		QuestionID:     q.ID,
		CategoryID:     q.CategoryID,
		GameID:         req.GameID,
		Mode:           domain.ModeGame,
		Round:          req.Round,
		FaceValue:      q.FaceValue,
		DisplayedValue: req.DisplayedValue,
		RawAnswer:      req.RawAnswer,
		Correct:        correct,
		Points:         awarded,
		CreatedAt:      now,
	}
	if err := tx.InsertVerdict(ctx, v); err != nil {
		return 0, 0, false, err
	}
	return awarded, gameScore, scored, nil
}

// gradePractice appends the verdict and keeps CategoryProgress in step.
// Points are awarded only for the first correct verdict on a question; later
// correct answers are still recorded true, with zero points, to keep the raw
// trail faithful.
func (e *Engine) gradePractice(ctx context.Context, tx Tx, req GradeRequest, q domain.Question, correct bool) (int, error) {
	first, err := e.firstAward(ctx, tx, req.UserID, q.ID)
	if err != nil {
		return 0, err
	}
	attempted, err := tx.HasPracticeVerdict(ctx, req.UserID, q.ID)
	if err != nil {
		return 0, err
	}

	awarded := 0
	if correct && first {
		awarded = e.policy.PointsFor(domain.ModePractice, req.Round, q.FaceValue, 0, true)
	}

	now := e.now()
	v := &domain.AnswerVerdict{
		UserID:     req.UserID,
		QuestionID: q.ID,
		CategoryID: q.CategoryID,
		Mode:       domain.ModePractice,
		Round:      req.Round,
		FaceValue:  q.FaceValue,
		RawAnswer:  req.RawAnswer,
		Correct:    correct,
		Points:     awarded,
		CreatedAt:  now,
	}
	if err := tx.InsertVerdict(ctx, v); err != nil {
		return 0, err
	}

	// Incremental progress fast path; the recompute pass owns the full
	// rebuild and both must agree.
	if !attempted || awarded > 0 {
		prog, err := tx.Progress(ctx, req.UserID, q.CategoryID)
		if err != nil {
			return 0, err
		}
		if prog == nil {
			prog = &domain.CategoryProgress{UserID: req.UserID, CategoryID: q.CategoryID}
		}
		if !attempted {
			prog.Total++
		}
		if awarded > 0 {
			prog.Correct++
			prog.Points += awarded
		}
		prog.UpdatedAt = now
		if err := tx.PutProgress(ctx, prog); err != nil {
			return 0, err
		}
	}
	return awarded, nil
}

// firstAward is the named "first correct answer wins" predicate, shared by
// grading and the recompute pass so the two can never disagree.
func (e *Engine) firstAward(ctx context.Context, tx Tx, userID, questionID string) (bool, error) {
	has, err := tx.HasCorrectPracticeVerdict(ctx, userID, questionID)
	if err != nil {
		return false, err
	}
	return !has, nil
}

// checkGameScore verifies the game score equals the sum of its correct slot
// points; a mismatch aborts the transaction rather than committing drift.
func (e *Engine) checkGameScore(ctx context.Context, tx Tx, gameID string) error {
	game, err := tx.Game(ctx, gameID)
	if err != nil {
		return err
	}
	sum, err := tx.GameSlotPoints(ctx, gameID)
	if err != nil {
		return err
	}
	if game.CurrentScore != sum {
		return domain.Consistencyf("game %s score %d != slot sum %d", gameID, game.CurrentScore, sum)
	}
	return nil
}

func overrideTexts(overrides []domain.AnswerOverride) []string {
	texts := make([]string, 0, len(overrides))
	for _, o := range overrides {
		texts = append(texts, o.Text)
	}
	return texts
}
