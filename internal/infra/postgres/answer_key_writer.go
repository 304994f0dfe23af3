package postgres

import (
	"context"
	"fmt"
	"time"

	"countdown-quiz/internal/domain"
	"github.com/uptrace/bun"
)

// AnswerKeyRow is the bun model of the answer_keys table.
type AnswerKeyRow struct {
	bun.BaseModel `bun:"table:answer_keys"`

	ID        string    `bun:"id,pk"`
	Body      string    `bun:"body,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AnswerKeyWriter upserts answer keys.
type AnswerKeyWriter struct {
	db *bun.DB
}

func NewAnswerKeyWriter(db *bun.DB) *AnswerKeyWriter {
	return &AnswerKeyWriter{db: db}
}

func (w *AnswerKeyWriter) SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error {
	row := &AnswerKeyRow{ID: key.QuizID, Body: key.Body, UpdatedAt: time.Now().UTC()}
	_, err := w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("body = EXCLUDED.body").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save answer key %q: %w", key.QuizID, err)
	}
	return nil
}
