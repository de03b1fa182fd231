package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trivia-frenzy/internal/domain"
)

// SessionRepository abstracts where live games are registered (in-memory, Redis-marked).
type SessionRepository interface {
	Save(game *Game)
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
}

// CategoryRepository loads the category catalog (from cache/backing API).
type CategoryRepository interface {
	GetCategories(ctx context.Context) ([]domain.Category, error)
}

// GameService contains the menu-level game use cases.
type GameService struct {
	sessions   SessionRepository
	source     *QuestionSource
	categories CategoryRepository
	preparer   *Preparer
	opts       GameOptions
	logger     *zap.Logger
}

func NewGameService(sessions SessionRepository, source *QuestionSource, categories CategoryRepository, opts GameOptions, logger *zap.Logger) *GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameService{
		sessions:   sessions,
		source:     source,
		categories: categories,
		preparer:   NewPreparer(nil),
		opts:       opts,
		logger:     logger,
	}
}

// Categories returns the category catalog; failures yield an empty list.
func (s *GameService) Categories(ctx context.Context) []domain.Category {
	if s.categories == nil {
		return []domain.Category{}
	}
	categories, err := s.categories.GetCategories(ctx)
	if err != nil {
		s.logger.Warn("failed to load categories", zap.Error(err))
		return []domain.Category{}
	}
	return categories
}

// Difficulties returns the fixed difficulty choices.
func (s *GameService) Difficulties() []string {
	return append([]string(nil), domain.Difficulties...)
}

// Start fetches questions for settings and launches a new game. When the source yields nothing
// it returns domain.ErrNoQuestions and no game is created.
func (s *GameService) Start(ctx context.Context, player string, settings domain.Settings) (*Game, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	records := s.source.Fetch(ctx, settings)
	if len(records) == 0 {
		return nil, domain.ErrNoQuestions
	}

	game, err := NewGame(uuid.NewString(), player, settings, records, s.preparer, s.opts)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	game.Start(ctx)
	s.sessions.Save(game)

	s.logger.Info("game started",
		zap.String("game_id", game.ID()),
		zap.String("player", player),
		zap.Int("questions", len(records)),
		zap.String("difficulty", settings.Difficulty))
	return game, nil
}

// Replay discards a game and starts a fresh one with the same player and settings.
func (s *GameService) Replay(ctx context.Context, gameID string) (*Game, error) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	s.Abandon(ctx, gameID)
	return s.Start(ctx, game.Player(), game.Settings())
}

// Submit records an answer for the current question of a game.
func (s *GameService) Submit(ctx context.Context, gameID, answer string) (domain.Resolution, error) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Resolution{}, domain.ErrGameNotFound
	}
	return game.Submit(ctx, answer)
}

// Subscribe returns a channel that receives the events of a game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, gameID string) (<-chan Event, func(), error) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return nil, nil, domain.ErrGameNotFound
	}
	ch, cancel := game.Subscribe()
	return ch, cancel, nil
}

// Get returns a registered game.
func (s *GameService) Get(gameID string) (*Game, error) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// Abandon stops a game (give up, exit to menu, disconnect) and drops its session.
func (s *GameService) Abandon(_ context.Context, gameID string) {
	game, ok := s.sessions.Get(gameID)
	if !ok {
		return
	}
	game.Stop()
	s.sessions.Delete(gameID)
	s.logger.Info("game discarded", zap.String("game_id", gameID))
}
