package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trivia-frenzy/internal/app"
	"trivia-frenzy/internal/config"
	"trivia-frenzy/internal/infra/memory"
	"trivia-frenzy/internal/infra/opentdb"
	pgbank "trivia-frenzy/internal/infra/postgres"
	infraredis "trivia-frenzy/internal/infra/redis"
)

const sourcePostgres = "postgres"

// components holds everything built from config; close releases pools and clients.
type components struct {
	service *app.GameService
	client  *opentdb.Client
	close   func()
}

func newOpenTDBClient(cfg config.Config) *opentdb.Client {
	timeout := config.TTLDuration(cfg.OpenTDB.Timeout, 10*time.Second)
	return opentdb.NewClient(cfg.OpenTDB.BaseURL, &http.Client{Timeout: timeout})
}

func newGameOptions(cfg config.Config) app.GameOptions {
	return app.GameOptions{
		TickInterval: config.TTLDuration(cfg.Game.TickInterval, app.DefaultTickInterval),
		RevealDelay:  config.TTLDuration(cfg.Game.RevealDelay, app.DefaultRevealDelay),
	}
}

// buildComponents wires the game service. Redis backs the category cache and session
// markers when configured; the Postgres question bank replaces OpenTDB when questions.source
// is "postgres".
func buildComponents(ctx context.Context, cfg config.Config, logger *zap.Logger) (*components, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client := newOpenTDBClient(cfg)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	var fetcher app.QuestionFetcher = client
	if cfg.Questions.Source == sourcePostgres {
		if cfg.Postgres.URL == "" {
			closeAll()
			return nil, fmt.Errorf("questions.source is %q but postgres url not configured", sourcePostgres)
		}
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			closeAll()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		fetcher = pgbank.NewQuestionBank(pool)
	}

	categoriesTTL := config.TTLDuration(cfg.Categories.TTL, time.Hour)
	var categories app.CategoryRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		categories = infraredis.NewCategoryRepository(redisClient, client, categoriesTTL)
		sessions = infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		categories = memory.NewCategoryRepository(client, categoriesTTL)
		sessions = memory.NewSessionStore()
	}

	service := app.NewGameService(sessions, app.NewQuestionSource(fetcher, logger), categories, newGameOptions(cfg), logger)
	logger.Info("game service ready",
		zap.String("question_source", fetcherName(cfg)),
		zap.Bool("redis", redisClient != nil))

	return &components{service: service, client: client, close: closeAll}, nil
}

func fetcherName(cfg config.Config) string {
	if cfg.Questions.Source == sourcePostgres {
		return sourcePostgres
	}
	return "opentdb"
}
