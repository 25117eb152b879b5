package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/btuckerc/jeopardy-sub005/internal/infra/memory"
)

func testQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q-everest": {
			ID:              "q-everest",
			CanonicalAnswer: "Mount (Mt.) Everest",
			FaceValue:       400,
			Round:           domain.RoundSingle,
			CategoryID:      "geography",
		},
		"q-revolution": {
			ID:              "q-revolution",
			CanonicalAnswer: "the French Revolution",
			FaceValue:       800,
			Round:           domain.RoundDouble,
			CategoryID:      "history",
		},
		"q-napoleon": {
			ID:              "q-napoleon",
			CanonicalAnswer: "Napoleon Bonaparte",
			Round:           domain.RoundFinal,
			CategoryID:      "history",
		},
	}
}

func newTestEngine(t *testing.T, opts ...app.Option) (*app.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutGame(domain.Game{ID: "g1", OwnerID: "u1", CreatedAt: time.Now()})
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testQuestions()), time.Minute)
	identity := memory.NewStaticIdentity([]string{"admin"})
	return app.NewEngine(store, questions, identity, opts...), store
}

func TestGradePracticeCorrect(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	result, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-everest",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mt. Everest",
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !result.Correct || result.Points != 400 || result.CanDispute {
		t.Fatalf("unexpected result %+v", result)
	}

	prog, ok := store.ProgressSnapshot("u1", "geography")
	if !ok {
		t.Fatalf("expected progress row")
	}
	if prog.Total != 1 || prog.Correct != 1 || prog.Points != 400 {
		t.Fatalf("unexpected progress %+v", prog)
	}
}

func TestGradePracticeMisspelled(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	result, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-revolution",
		Mode:       domain.ModePractice,
		Round:      domain.RoundDouble,
		RawAnswer:  "Frence Revolution",
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if !result.Correct || result.Points != 800 {
		t.Fatalf("misspelling within tolerance should score, got %+v", result)
	}
}

func TestGradePracticeRepeatEarnsNothing(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	req := app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-everest",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mount Everest",
	}
	if _, err := engine.Grade(ctx, req); err != nil {
		t.Fatalf("first grade: %v", err)
	}
	second, err := engine.Grade(ctx, req)
	if err != nil {
		t.Fatalf("second grade: %v", err)
	}
	if !second.Correct || second.Points != 0 {
		t.Fatalf("repeat solve must record true with zero points, got %+v", second)
	}

	prog, _ := store.ProgressSnapshot("u1", "geography")
	if prog.Total != 1 || prog.Correct != 1 || prog.Points != 400 {
		t.Fatalf("repeat solve must not move progress, got %+v", prog)
	}

	verdicts := store.VerdictSnapshot("u1", "q-everest")
	if len(verdicts) != 2 || !verdicts[1].Correct || verdicts[1].Points != 0 {
		t.Fatalf("raw trail must keep both verdicts, got %+v", verdicts)
	}
}

func TestGradePracticeWrong(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	result, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-everest",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "K2",
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.Correct || result.Points != 0 || !result.CanDispute {
		t.Fatalf("unexpected result %+v", result)
	}

	prog, _ := store.ProgressSnapshot("u1", "geography")
	if prog.Total != 1 || prog.Correct != 0 || prog.Points != 0 {
		t.Fatalf("wrong answer still counts an attempt, got %+v", prog)
	}
}

func TestGradeGameModeAwardsOnce(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	req := app.GradeRequest{
		UserID:         "u1",
		QuestionID:     "q-everest",
		Mode:           domain.ModeGame,
		Round:          domain.RoundSingle,
		RawAnswer:      "Mount Everest",
		GameID:         "g1",
		DisplayedValue: 600,
	}
	first, err := engine.Grade(ctx, req)
	if err != nil {
		t.Fatalf("first grade: %v", err)
	}
	if !first.Correct || first.Points != 600 {
		t.Fatalf("displayed value governs live games, got %+v", first)
	}
	if score, _ := store.GameScore("g1"); score != 600 {
		t.Fatalf("expected game score 600, got %d", score)
	}

	// A duplicate for the same slot observes the existing claim and must
	// not move the score.
	second, err := engine.Grade(ctx, req)
	if err != nil {
		t.Fatalf("second grade: %v", err)
	}
	if !second.Correct || second.Points != 0 {
		t.Fatalf("losing the slot claim must award nothing, got %+v", second)
	}
	if score, _ := store.GameScore("g1"); score != 600 {
		t.Fatalf("duplicate grade moved the score to %d", score)
	}
}

func TestGradeGameModeForbidden(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	_, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u2",
		QuestionID: "q-everest",
		Mode:       domain.ModeGame,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mount Everest",
		GameID:     "g1",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGradeGameModeDoesNotTouchProgress(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	if _, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-everest",
		Mode:       domain.ModeGame,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mount Everest",
		GameID:     "g1",
	}); err != nil {
		t.Fatalf("grade: %v", err)
	}
	if _, ok := store.ProgressSnapshot("u1", "geography"); ok {
		t.Fatalf("live-game grading must not write category progress")
	}
}

func TestGradeValidation(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	cases := []app.GradeRequest{
		{UserID: "u1", QuestionID: "q-everest", Mode: "BOGUS", Round: domain.RoundSingle, RawAnswer: "x"},
		{UserID: "u1", QuestionID: "q-everest", Mode: domain.ModePractice, Round: "BOGUS", RawAnswer: "x"},
		{UserID: "u1", QuestionID: "q-everest", Mode: domain.ModePractice, Round: domain.RoundSingle, RawAnswer: "   "},
		{UserID: "u1", QuestionID: "q-everest", Mode: domain.ModeGame, Round: domain.RoundSingle, RawAnswer: "x"},
	}
	for i, req := range cases {
		if _, err := engine.Grade(ctx, req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	_, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-missing",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "x",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGradeFinalRoundPracticeUsesNormalizedValue(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(t)

	result, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-napoleon",
		Mode:       domain.ModePractice,
		Round:      domain.RoundFinal,
		RawAnswer:  "Napoleon Bonaparte",
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if result.Points != 1000 {
		t.Fatalf("final round practice should use the normalized value, got %+v", result)
	}
}
