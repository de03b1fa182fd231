package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-frenzy/internal/domain"
)

// QuestionBank stores trivia records in Postgres and serves random batches from them.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

// FetchQuestions returns up to settings.QuestionCount random records matching the settings.
func (b *QuestionBank) FetchQuestions(ctx context.Context, settings domain.Settings) ([]domain.QuestionRecord, error) {
	settings = settings.Normalize()

	var categoryID *int
	if settings.Category != domain.AnyCategory {
		id, err := strconv.Atoi(settings.Category)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", settings.Category, domain.ErrInvalidSettings)
		}
		categoryID = &id
	}

	rows, err := b.pool.Query(ctx, `
		SELECT category, type, difficulty, question, correct_answer, incorrect_answers
		FROM questions
		WHERE difficulty = $1
		  AND type = $2
		  AND ($3::int IS NULL OR category_id = $3)
		ORDER BY random()
		LIMIT $4`,
		settings.Difficulty, settings.AnswerType, categoryID, settings.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var records []domain.QuestionRecord
	for rows.Next() {
		var (
			record    domain.QuestionRecord
			incorrect []byte
		)
		if err := rows.Scan(&record.Category, &record.Type, &record.Difficulty, &record.Question, &record.CorrectAnswer, &incorrect); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(incorrect, &record.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal incorrect answers: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return records, nil
}

// SaveQuestions upserts records under categoryID (nil when unknown) and returns how many were new.
func (b *QuestionBank) SaveQuestions(ctx context.Context, categoryID *int, records []domain.QuestionRecord) (int, error) {
	batch := &pgx.Batch{}
	for _, record := range records {
		incorrect, err := json.Marshal(record.IncorrectAnswers)
		if err != nil {
			return 0, fmt.Errorf("marshal incorrect answers: %w", err)
		}
		batch.Queue(`
			INSERT INTO questions (category_id, category, difficulty, type, question, correct_answer, incorrect_answers)
			VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
			ON CONFLICT (question, correct_answer) DO NOTHING`,
			categoryID, record.Category, record.Difficulty, record.Type, record.Question, record.CorrectAnswer, string(incorrect))
	}

	results := b.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert question: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
