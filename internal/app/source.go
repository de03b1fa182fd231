package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trivia-frenzy/internal/domain"
)

// QuestionFetcher retrieves raw question records (OpenTDB, Postgres bank).
type QuestionFetcher interface {
	FetchQuestions(ctx context.Context, settings domain.Settings) ([]domain.QuestionRecord, error)
}

// QuestionSource never fails: any fetch error is logged and reported as an empty batch.
type QuestionSource struct {
	fetcher QuestionFetcher
	logger  *zap.Logger
}

func NewQuestionSource(fetcher QuestionFetcher, logger *zap.Logger) *QuestionSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionSource{fetcher: fetcher, logger: logger}
}

// Fetch returns the playable records for settings, or nil when none could be obtained.
func (s *QuestionSource) Fetch(ctx context.Context, settings domain.Settings) []domain.QuestionRecord {
	records, err := s.fetcher.FetchQuestions(ctx, settings)
	if err != nil {
		s.logger.Warn("failed to fetch questions",
			zap.Int("amount", settings.QuestionCount),
			zap.String("category", settings.Category),
			zap.String("difficulty", settings.Difficulty),
			zap.Error(err))
		return nil
	}

	valid := make([]domain.QuestionRecord, 0, len(records))
	for i, record := range records {
		if strings.TrimSpace(record.Question) == "" || strings.TrimSpace(record.CorrectAnswer) == "" {
			s.logger.Warn("skipping malformed question record", zap.Int("position", i))
			continue
		}
		valid = append(valid, record)
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}
