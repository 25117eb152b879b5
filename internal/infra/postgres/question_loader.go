package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads immutable question content from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	q := domain.Question{ID: questionID}
	err := l.pool.QueryRow(ctx,
		`SELECT canonical_answer, face_value, round, category_id, triple_stumper
		 FROM questions WHERE id=$1`, questionID).
		Scan(&q.CanonicalAnswer, &q.FaceValue, &q.Round, &q.CategoryID, &q.TripleStumper)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.NotFoundf("question %s", questionID)
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}
