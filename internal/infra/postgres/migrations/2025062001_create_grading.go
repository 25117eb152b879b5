package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_grading.sql
var createGradingSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createGradingSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS disputes;
				DROP TABLE IF EXISTS category_progress;
				DROP TABLE IF EXISTS answer_verdicts;
				DROP TABLE IF EXISTS answer_overrides;
				DROP TABLE IF EXISTS game_question_slots;
				DROP TABLE IF EXISTS games;
				DROP TABLE IF EXISTS questions;
			`)
			return err
		},
	)
}
