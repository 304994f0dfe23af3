package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	pgstore "countdown-quiz/internal/infra/postgres"
	pgmigrations "countdown-quiz/internal/infra/postgres/migrations"
	infraredis "countdown-quiz/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type keepOrder struct{}

func (keepOrder) Intn(n int) int { return n - 1 }

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedAnswerKey(t, ctx, pgURL, domain.AnswerKey{QuizID: "quiz-1", Body: "2\n4\n1\n"})

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewAnswerKeyLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	answers := infraredis.NewAnswerKeyRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	reports := infraredis.NewReportStore(redisClient, time.Hour)
	service := app.NewQuizService(sessionStore, answers, reports, app.Options{
		Questions:          3,
		SecondsPerQuestion: 5,
		Shuffler:           keepOrder{},
		Logger:             zerolog.Nop(),
	})

	if _, err := service.Start(ctx, "quiz-404"); err == nil {
		t.Fatalf("expected unknown quiz to fail")
	}

	session, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer service.Close(ctx, session.ID())

	if err := session.SelectOption(0, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := session.LoadQuestion(2); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = session.SetGuessed(2, true)
	_ = session.SelectOption(2, 3)

	result, err := service.Submit(ctx, session.ID())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Summary.Correct != 1 || result.Summary.Wrong != 1 || result.Summary.Percentage != 33.33 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}

	report, err := service.Report(ctx, session.ID())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Rows) != 2 || !strings.Contains(report.Body, "Not Answered") {
		t.Fatalf("unexpected report %+v", report)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedAnswerKey(t *testing.T, ctx context.Context, dsn string, key domain.AnswerKey) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := pgstore.NewAnswerKeyWriter(db).SaveAnswerKey(ctx, key); err != nil {
		t.Fatalf("insert answer key: %v", err)
	}
	// A second save must upsert, not fail.
	if err := pgstore.NewAnswerKeyWriter(db).SaveAnswerKey(ctx, key); err != nil {
		t.Fatalf("upsert answer key: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
