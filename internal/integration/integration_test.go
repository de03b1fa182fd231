package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"trivia-frenzy/internal/app"
	"trivia-frenzy/internal/domain"
	pgbank "trivia-frenzy/internal/infra/postgres"
	pgmigrations "trivia-frenzy/internal/infra/postgres/migrations"
	infraredis "trivia-frenzy/internal/infra/redis"
)

func TestQuestionBankGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	bank := pgbank.NewQuestionBank(pool)
	category := 9
	inserted, err := bank.SaveQuestions(ctx, &category, sampleRecords())
	if err != nil {
		t.Fatalf("save questions: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 inserted, got %d", inserted)
	}
	again, err := bank.SaveQuestions(ctx, &category, sampleRecords())
	if err != nil {
		t.Fatalf("save questions again: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected duplicates to be skipped, got %d", again)
	}

	hard, err := bank.FetchQuestions(ctx, domain.Settings{QuestionCount: 10, Category: "9", Difficulty: "hard"})
	if err != nil {
		t.Fatalf("fetch hard: %v", err)
	}
	if len(hard) != 0 {
		t.Fatalf("expected no hard questions, got %d", len(hard))
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewGameService(sessions, app.NewQuestionSource(bank, nil), nil,
		app.GameOptions{TickInterval: time.Hour, RevealDelay: time.Millisecond}, nil)

	game, err := service.Start(ctx, "Alice", domain.Settings{QuestionCount: 2, Category: "9", Difficulty: "easy"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer service.Abandon(ctx, game.ID())

	events, cancel, err := service.Subscribe(ctx, game.ID())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	for i := 0; i < 2; i++ {
		question := waitFor(t, events, app.EventQuestion)
		if _, err := service.Submit(ctx, game.ID(), question.Question.CorrectAnswer); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	complete := waitFor(t, events, app.EventComplete)
	if complete.Summary.Score != 20 || complete.Summary.Total != 2 || complete.Summary.Outcome != domain.OutcomeWin {
		t.Fatalf("unexpected summary %+v", complete.Summary)
	}

	if _, err := service.Start(ctx, "Alice", domain.Settings{QuestionCount: 2, Category: "9", Difficulty: "hard"}); err != domain.ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions for empty bank slice, got %v", err)
	}
}

func waitFor(t *testing.T, events <-chan app.Event, want app.EventType) app.Event {
	t.Helper()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
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
}

func sampleRecords() []domain.QuestionRecord {
	return []domain.QuestionRecord{
		{Category: "General Knowledge", Type: "multiple", Difficulty: "easy", Question: "What is 2 + 2?", CorrectAnswer: "4", IncorrectAnswers: []string{"3", "5", "22"}},
		{Category: "General Knowledge", Type: "multiple", Difficulty: "easy", Question: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Berlin", "Rome", "Madrid"}},
		{Category: "General Knowledge", Type: "multiple", Difficulty: "medium", Question: "Largest planet?", CorrectAnswer: "Jupiter", IncorrectAnswers: []string{"Mars", "Venus", "Earth"}},
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
