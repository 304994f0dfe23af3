package postgres

import (
	"context"
	"errors"
	"fmt"

	"countdown-quiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AnswerKeyLoader loads raw answer keys from the answer_keys table.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, quizID string) (domain.AnswerKey, error) {
	var body string
	err := l.pool.QueryRow(ctx, `SELECT body FROM answer_keys WHERE id=$1`, quizID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnswerKey{}, fmt.Errorf("quiz id %q: %w", quizID, domain.ErrQuizNotFound)
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	return domain.AnswerKey{QuizID: quizID, Body: body}, nil
}
