package app_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/btuckerc/jeopardy-sub005/internal/infra/memory"
)

type snapshot struct {
	verdicts []domain.AnswerVerdict
	progress domain.CategoryProgress
	score    int
}

func takeSnapshot(store *memory.Store, userID, questionID, categoryID, gameID string) snapshot {
	prog, _ := store.ProgressSnapshot(userID, categoryID)
	score, _ := store.GameScore(gameID)
	return snapshot{
		verdicts: store.VerdictSnapshot(userID, questionID),
		progress: prog,
		score:    score,
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	if _, err := engine.Grade(ctx, app.GradeRequest{
		UserID:         "u1",
		QuestionID:     "q-napoleon",
		Mode:           domain.ModeGame,
		Round:          domain.RoundFinal,
		RawAnswer:      "Napoleon",
		GameID:         "g1",
		DisplayedValue: 1200,
	}); err != nil {
		t.Fatalf("grade: %v", err)
	}
	if _, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-napoleon",
		Mode:       domain.ModePractice,
		Round:      domain.RoundFinal,
		RawAnswer:  "Napoleon",
	}); err != nil {
		t.Fatalf("grade: %v", err)
	}

	if _, err := engine.AddOverride(ctx, "admin", "q-napoleon", "napoleon", ""); err != nil {
		t.Fatalf("add override: %v", err)
	}
	if err := engine.Recompute(ctx, "u1", "q-napoleon"); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	first := takeSnapshot(store, "u1", "q-napoleon", "history", "g1")
	if first.score != 1200 || first.progress.Points != 1000 {
		t.Fatalf("unexpected state after first pass: %+v", first)
	}

	// Second pass with no new override must change nothing.
	if err := engine.Recompute(ctx, "u1", "q-napoleon"); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	second := takeSnapshot(store, "u1", "q-napoleon", "history", "g1")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pass is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRecomputeNeverRevokesCorrectVerdicts(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	if _, err := engine.Grade(ctx, app.GradeRequest{
		UserID:     "u1",
		QuestionID: "q-everest",
		Mode:       domain.ModePractice,
		Round:      domain.RoundSingle,
		RawAnswer:  "Mount Everest",
	}); err != nil {
		t.Fatalf("grade: %v", err)
	}

	// An override unrelated to the stored answer adds acceptance only.
	if _, err := engine.AddOverride(ctx, "admin", "q-everest", "sagarmatha", ""); err != nil {
		t.Fatalf("add override: %v", err)
	}
	if err := engine.Recompute(ctx, "u1", "q-everest"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	verdicts := store.VerdictSnapshot("u1", "q-everest")
	if len(verdicts) != 1 || !verdicts[0].Correct || verdicts[0].Points != 400 {
		t.Fatalf("correct verdict must be untouched, got %+v", verdicts)
	}
}

func TestRecomputeLeavesOtherUsersAlone(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	for _, user := range []string{"u1", "u2"} {
		if _, err := engine.Grade(ctx, app.GradeRequest{
			UserID:     user,
			QuestionID: "q-napoleon",
			Mode:       domain.ModePractice,
			Round:      domain.RoundFinal,
			RawAnswer:  "Napoleon",
		}); err != nil {
			t.Fatalf("grade %s: %v", user, err)
		}
	}

	if _, err := engine.AddOverride(ctx, "admin", "q-napoleon", "napoleon", ""); err != nil {
		t.Fatalf("add override: %v", err)
	}
	if err := engine.Recompute(ctx, "u1", "q-napoleon"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if v := store.VerdictSnapshot("u1", "q-napoleon"); !v[0].Correct {
		t.Fatalf("scoped user must be repaired")
	}
	if v := store.VerdictSnapshot("u2", "q-napoleon"); v[0].Correct {
		t.Fatalf("pass must not touch other users")
	}
	if prog, ok := store.ProgressSnapshot("u2", "history"); !ok || prog.Correct != 0 {
		t.Fatalf("other user's progress must be untouched, got %+v", prog)
	}
}

func TestRecomputeAwardsPracticePointsOnce(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine(t)

	// Two wrong answers for the same question; both flip, one award.
	for _, raw := range []string{"Napoleon", "napoleonn"} {
		if _, err := engine.Grade(ctx, app.GradeRequest{
			UserID:     "u1",
			QuestionID: "q-napoleon",
			Mode:       domain.ModePractice,
			Round:      domain.RoundFinal,
			RawAnswer:  raw,
		}); err != nil {
			t.Fatalf("grade %q: %v", raw, err)
		}
	}

	if _, err := engine.AddOverride(ctx, "admin", "q-napoleon", "napoleon", ""); err != nil {
		t.Fatalf("add override: %v", err)
	}
	if err := engine.Recompute(ctx, "u1", "q-napoleon"); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	verdicts := store.VerdictSnapshot("u1", "q-napoleon")
	if len(verdicts) != 2 || !verdicts[0].Correct || !verdicts[1].Correct {
		t.Fatalf("both verdicts should flip, got %+v", verdicts)
	}
	if verdicts[0].Points != 1000 || verdicts[1].Points != 0 {
		t.Fatalf("only the first flip earns points, got %d and %d", verdicts[0].Points, verdicts[1].Points)
	}

	prog, _ := store.ProgressSnapshot("u1", "history")
	if prog.Total != 1 || prog.Correct != 1 || prog.Points != 1000 {
		t.Fatalf("rebuilt progress wrong: %+v", prog)
	}
}
