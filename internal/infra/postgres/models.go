package postgres

import (
	"time"

	"github.com/btuckerc/jeopardy-sub005/internal/domain"
	"github.com/uptrace/bun"
)

type gameRow struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID           string    `bun:"id,pk"`
	OwnerID      string    `bun:"owner_id,notnull"`
	CurrentScore int       `bun:"current_score,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:now()"`
}

type slotRow struct {
	bun.BaseModel `bun:"table:game_question_slots,alias:s"`

	GameID     string    `bun:"game_id,pk"`
	QuestionID string    `bun:"question_id,pk"`
	Answered   bool      `bun:"answered,notnull"`
	Correct    bool      `bun:"correct,notnull"`
	Points     int       `bun:"points,notnull"`
	AnsweredAt time.Time `bun:"answered_at,notnull,default:now()"`
}

type overrideRow struct {
	bun.BaseModel `bun:"table:answer_overrides,alias:o"`

	ID         int64     `bun:"id,pk,autoincrement"`
	QuestionID string    `bun:"question_id,notnull"`
	Text       string    `bun:"text,notnull"`
	Source     string    `bun:"source,notnull"`
	CreatedBy  string    `bun:"created_by,notnull"`
	Note       string    `bun:"note,notnull,default:''"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:now()"`
}

type verdictRow struct {
	bun.BaseModel `bun:"table:answer_verdicts,alias:v"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         string    `bun:"user_id,notnull"`
	QuestionID     string    `bun:"question_id,notnull"`
	CategoryID     string    `bun:"category_id,notnull"`
	GameID         string    `bun:"game_id,notnull,default:''"`
	Mode           string    `bun:"mode,notnull"`
	Round          string    `bun:"round,notnull"`
	FaceValue      int       `bun:"face_value,notnull"`
	DisplayedValue int       `bun:"displayed_value,notnull"`
	RawAnswer      string    `bun:"raw_answer,notnull"`
	Correct        bool      `bun:"correct,notnull"`
	Points         int       `bun:"points,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:now()"`
}

type progressRow struct {
	bun.BaseModel `bun:"table:category_progress,alias:p"`

	UserID     string    `bun:"user_id,pk"`
	CategoryID string    `bun:"category_id,pk"`
	Total      int       `bun:"total,notnull"`
	Correct    int       `bun:"correct,notnull"`
	Points     int       `bun:"points,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:now()"`
}

type disputeRow struct {
	bun.BaseModel `bun:"table:disputes,alias:d"`

	ID              int64     `bun:"id,pk,autoincrement"`
	UserID          string    `bun:"user_id,notnull"`
	QuestionID      string    `bun:"question_id,notnull"`
	GameID          string    `bun:"game_id,notnull,default:''"`
	SubmittedAnswer string    `bun:"submitted_answer,notnull"`
	Status          string    `bun:"status,notnull"`
	ResolvedBy      string    `bun:"resolved_by,notnull,default:''"`
	ResolutionNote  string    `bun:"resolution_note,notnull,default:''"`
	OverrideID      int64     `bun:"override_id,notnull,default:0"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:now()"`
	ResolvedAt      time.Time `bun:"resolved_at,nullzero"`
}

func (r gameRow) toDomain() domain.Game {
	return domain.Game{ID: r.ID, OwnerID: r.OwnerID, CurrentScore: r.CurrentScore, CreatedAt: r.CreatedAt}
}

func (r slotRow) toDomain() domain.GameQuestionSlot {
	return domain.GameQuestionSlot{
		GameID:     r.GameID,
		QuestionID: r.QuestionID,
		Answered:   r.Answered,
		Correct:    r.Correct,
		Points:     r.Points,
		AnsweredAt: r.AnsweredAt,
	}
}

func (r overrideRow) toDomain() domain.AnswerOverride {
	return domain.AnswerOverride{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		Text:       r.Text,
		Source:     domain.OverrideSource(r.Source),
		CreatedBy:  r.CreatedBy,
		Note:       r.Note,
		CreatedAt:  r.CreatedAt,
	}
}

func (r verdictRow) toDomain() domain.AnswerVerdict {
	return domain.AnswerVerdict{
		ID:             r.ID,
		UserID:         r.UserID,
		QuestionID:     r.QuestionID,
		CategoryID:     r.CategoryID,
		GameID:         r.GameID,
		Mode:           domain.Mode(r.Mode),
		Round:          domain.Round(r.Round),
		FaceValue:      r.FaceValue,
		DisplayedValue: r.DisplayedValue,
		RawAnswer:      r.RawAnswer,
		Correct:        r.Correct,
		Points:         r.Points,
		CreatedAt:      r.CreatedAt,
	}
}

func (r disputeRow) toDomain() domain.Dispute {
	return domain.Dispute{
		ID:              r.ID,
		UserID:          r.UserID,
		QuestionID:      r.QuestionID,
		GameID:          r.GameID,
		SubmittedAnswer: r.SubmittedAnswer,
		Status:          domain.DisputeStatus(r.Status),
		ResolvedBy:      r.ResolvedBy,
		ResolutionNote:  r.ResolutionNote,
		OverrideID:      r.OverrideID,
		CreatedAt:       r.CreatedAt,
		ResolvedAt:      r.ResolvedAt,
	}
}
