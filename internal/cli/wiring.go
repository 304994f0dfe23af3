package cli

import (
	"context"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/config"
	"countdown-quiz/internal/infra/file"
	"countdown-quiz/internal/infra/memory"
	pgloader "countdown-quiz/internal/infra/postgres"
	redisinfra "countdown-quiz/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// backends holds the wired repositories and the connections behind them.
type backends struct {
	sessions app.SessionRepository
	answers  app.AnswerKeyRepository
	reports  app.ReportRepository
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// wireBackends picks Postgres or the answers directory for answer keys and
// Redis or process memory for caching, sessions and reports.
func wireBackends(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}

	var loader memory.AnswerKeyLoader = file.NewAnswerKeyLoader(cfg.Quiz.AnswersDir)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		loader = pgloader.NewAnswerKeyLoader(pool)
		log.Info().Msg("answer keys from postgres")
	} else {
		log.Info().Str("dir", cfg.Quiz.AnswersDir).Msg("answer keys from directory")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	reportTTL := config.TTLDuration(cfg.Report.TTL, 24*time.Hour)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

		b.answers = redisinfra.NewAnswerKeyRepository(client, loader, quizTTL)
		b.sessions = redisinfra.NewSessionStore(client, redisTTL)
		b.reports = redisinfra.NewReportStore(client, reportTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis cache enabled")
		return b, nil
	}

	b.answers = memory.NewAnswerKeyRepository(loader, cfg.Quiz.Questions, quizTTL)
	b.sessions = memory.NewSessionStore()
	b.reports = memory.NewReportStore()
	return b, nil
}

func newService(cfg config.Config, b *backends, log zerolog.Logger) *app.QuizService {
	return app.NewQuizService(b.sessions, b.answers, b.reports, app.Options{
		Questions:          cfg.Quiz.Questions,
		SecondsPerQuestion: cfg.Quiz.SecondsPerQuestion,
		Logger:             log,
	})
}
