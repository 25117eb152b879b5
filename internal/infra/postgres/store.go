package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/btuckerc/jeopardy-sub005/internal/app"
	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/uptrace/bun"
)

// Store is the bun-backed grading store. Every RunInTx unit executes under
// SERIALIZABLE isolation; the recompute pass reads verdicts in the same
// transaction it repairs them in.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx app.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable},
		func(ctx context.Context, tx bun.Tx) error {
			return fn(&pgTx{tx: tx})
		})
}

type pgTx struct {
	tx bun.Tx
}

func (t *pgTx) Game(ctx context.Context, gameID string) (*domain.Game, error) {
	row := new(gameRow)
	err := t.tx.NewSelect().Model(row).Where("g.id = ?", gameID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("game %s", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	g := row.toDomain()
	return &g, nil
}

func (t *pgTx) Slot(ctx context.Context, gameID, questionID string) (*domain.GameQuestionSlot, error) {
	row := new(slotRow)
	err := t.tx.NewSelect().Model(row).
		Where("s.game_id = ?", gameID).
		Where("s.question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	slot := row.toDomain()
	return &slot, nil
}

func (t *pgTx) ClaimSlot(ctx context.Context, slot *domain.GameQuestionSlot) (bool, error) {
	row := &slotRow{
		GameID:     slot.GameID,
		QuestionID: slot.QuestionID,
		Answered:   slot.Answered,
		Correct:    slot.Correct,
		Points:     slot.Points,
		AnsweredAt: slot.AnsweredAt,
	}
	res, err := t.tx.NewInsert().Model(row).
		On("CONFLICT (game_id, question_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("claim slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (t *pgTx) MarkSlotCorrect(ctx context.Context, gameID, questionID string, points int) error {
	res, err := t.tx.NewUpdate().Model((*slotRow)(nil)).
		Set("answered = TRUE").
		Set("correct = TRUE").
		Set("points = ?", points).
		Where("game_id = ?", gameID).
		Where("question_id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark slot correct: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NotFoundf("slot %s/%s", gameID, questionID)
	}
	return nil
}

func (t *pgTx) AddGameScore(ctx context.Context, gameID string, delta int) error {
	res, err := t.tx.NewUpdate().Model((*gameRow)(nil)).
		Set("current_score = current_score + ?", delta).
		Where("id = ?", gameID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add game score: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NotFoundf("game %s", gameID)
	}
	return nil
}

func (t *pgTx) GameSlotPoints(ctx context.Context, gameID string) (int, error) {
	var sum sql.NullInt64
	err := t.tx.NewSelect().Model((*slotRow)(nil)).
		ColumnExpr("SUM(points)").
		Where("game_id = ?", gameID).
		Where("correct").
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("sum slot points: %w", err)
	}
	return int(sum.Int64), nil
}

func (t *pgTx) Overrides(ctx context.Context, questionID string) ([]domain.AnswerOverride, error) {
	var rows []overrideRow
	err := t.tx.NewSelect().Model(&rows).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	out := make([]domain.AnswerOverride, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *pgTx) UpsertOverride(ctx context.Context, o *domain.AnswerOverride) (*domain.AnswerOverride, error) {
	row := &overrideRow{
		QuestionID: o.QuestionID,
		Text:       o.Text,
		Source:     string(o.Source),
		CreatedBy:  o.CreatedBy,
		Note:       o.Note,
		CreatedAt:  o.CreatedAt,
	}
	res, err := t.tx.NewInsert().Model(row).
		On("CONFLICT (question_id, text) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert override: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		stored := row.toDomain()
		return &stored, nil
	}

	// Lost to an existing row for the same normalized text; reuse it so the
	// audit trail stays free of duplicates.
	existing := new(overrideRow)
	err = t.tx.NewSelect().Model(existing).
		Where("question_id = ?", o.QuestionID).
		Where("text = ?", o.Text).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing override: %w", err)
	}
	stored := existing.toDomain()
	return &stored, nil
}

func (t *pgTx) InsertVerdict(ctx context.Context, v *domain.AnswerVerdict) error {
	row := &verdictRow{
		UserID:         v.UserID,
		QuestionID:     v.QuestionID,
		CategoryID:     v.CategoryID,
		GameID:         v.GameID,
		Mode:           string(v.Mode),
		Round:          string(v.Round),
		FaceValue:      v.FaceValue,
		DisplayedValue: v.DisplayedValue,
		RawAnswer:      v.RawAnswer,
		Correct:        v.Correct,
		Points:         v.Points,
		CreatedAt:      v.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}
	v.ID = row.ID
	return nil
}

func (t *pgTx) SetVerdictOutcome(ctx context.Context, verdictID int64, correct bool, points int) error {
	res, err := t.tx.NewUpdate().Model((*verdictRow)(nil)).
		Set("correct = ?", correct).
		Set("points = ?", points).
		Where("id = ?", verdictID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set verdict outcome: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NotFoundf("verdict %d", verdictID)
	}
	return nil
}

func (t *pgTx) LatestVerdict(ctx context.Context, userID, questionID string) (*domain.AnswerVerdict, error) {
	row := new(verdictRow)
	err := t.tx.NewSelect().Model(row).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest verdict: %w", err)
	}
	v := row.toDomain()
	return &v, nil
}

func (t *pgTx) IncorrectVerdicts(ctx context.Context, userID, questionID string) ([]domain.AnswerVerdict, error) {
	var rows []verdictRow
	err := t.tx.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Where("NOT correct").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incorrect verdicts: %w", err)
	}
	out := make([]domain.AnswerVerdict, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *pgTx) HasCorrectPracticeVerdict(ctx context.Context, userID, questionID string) (bool, error) {
	return t.tx.NewSelect().Model((*verdictRow)(nil)).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Where("mode = ?", string(domain.ModePractice)).
		Where("correct").
		Exists(ctx)
}

func (t *pgTx) HasPracticeVerdict(ctx context.Context, userID, questionID string) (bool, error) {
	return t.tx.NewSelect().Model((*verdictRow)(nil)).
		Where("user_id = ?", userID).
		Where("question_id = ?", questionID).
		Where("mode = ?", string(domain.ModePractice)).
		Exists(ctx)
}

func (t *pgTx) PracticeVerdictsByCategory(ctx context.Context, userID, categoryID string) ([]domain.AnswerVerdict, error) {
	var rows []verdictRow
	err := t.tx.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("category_id = ?", categoryID).
		Where("mode = ?", string(domain.ModePractice)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list category verdicts: %w", err)
	}
	out := make([]domain.AnswerVerdict, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (t *pgTx) Progress(ctx context.Context, userID, categoryID string) (*domain.CategoryProgress, error) {
	row := new(progressRow)
	err := t.tx.NewSelect().Model(row).
		Where("user_id = ?", userID).
		Where("category_id = ?", categoryID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return &domain.CategoryProgress{
		UserID:     row.UserID,
		CategoryID: row.CategoryID,
		Total:      row.Total,
		Correct:    row.Correct,
		Points:     row.Points,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (t *pgTx) PutProgress(ctx context.Context, p *domain.CategoryProgress) error {
	row := &progressRow{
		UserID:     p.UserID,
		CategoryID: p.CategoryID,
		Total:      p.Total,
		Correct:    p.Correct,
		Points:     p.Points,
		UpdatedAt:  p.UpdatedAt,
	}
	_, err := t.tx.NewInsert().Model(row).
		On("CONFLICT (user_id, category_id) DO UPDATE").
		Set("total = EXCLUDED.total").
		Set("correct = EXCLUDED.correct").
		Set("points = EXCLUDED.points").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("put progress: %w", err)
	}
	return nil
}

func (t *pgTx) InsertDispute(ctx context.Context, d *domain.Dispute) error {
	row := &disputeRow{
		UserID:          d.UserID,
		QuestionID:      d.QuestionID,
		GameID:          d.GameID,
		SubmittedAnswer: d.SubmittedAnswer,
		Status:          string(d.Status),
		ResolvedBy:      d.ResolvedBy,
		ResolutionNote:  d.ResolutionNote,
		OverrideID:      d.OverrideID,
		CreatedAt:       d.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert dispute: %w", err)
	}
	d.ID = row.ID
	return nil
}

func (t *pgTx) DisputeByID(ctx context.Context, disputeID int64) (*domain.Dispute, error) {
	row := new(disputeRow)
	err := t.tx.NewSelect().Model(row).Where("d.id = ?", disputeID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load dispute: %w", err)
	}
	d := row.toDomain()
	return &d, nil
}

func (t *pgTx) UpdateDispute(ctx context.Context, d *domain.Dispute) error {
	row := &disputeRow{
		ID:              d.ID,
		UserID:          d.UserID,
		QuestionID:      d.QuestionID,
		GameID:          d.GameID,
		SubmittedAnswer: d.SubmittedAnswer,
		Status:          string(d.Status),
		ResolvedBy:      d.ResolvedBy,
		ResolutionNote:  d.ResolutionNote,
		OverrideID:      d.OverrideID,
		CreatedAt:       d.CreatedAt,
		ResolvedAt:      d.ResolvedAt,
	}
	res, err := t.tx.NewUpdate().Model(row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update dispute: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.NotFoundf("dispute %d", d.ID)
	}
	return nil
}

func (t *pgTx) PendingDisputes(ctx context.Context) ([]domain.Dispute, error) {
	var rows []disputeRow
	err := t.tx.NewSelect().Model(&rows).
		Where("status = ?", string(domain.DisputePending)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending disputes: %w", err)
	}
	out := make([]domain.Dispute, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
