package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trivia-frenzy/internal/domain"
	"trivia-frenzy/internal/infra/opentdb"
	pgbank "trivia-frenzy/internal/infra/postgres"
)

// NewImportCmd copies a batch of OpenTDB questions into the Postgres question bank.
func NewImportCmd(configPath *string) *cobra.Command {
	var settings domain.Settings
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import questions from Open Trivia DB into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			settings = settings.Normalize()
			check := settings
			if check.Difficulty == "" {
				check.Difficulty = domain.Difficulties[0]
			}
			if err := check.Validate(); err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg, logger); err != nil {
				return err
			}

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			inserted, err := importQuestions(cmd.Context(), newOpenTDBClient(cfg), pgbank.NewQuestionBank(pool), settings, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d new questions\n", inserted)
			return nil
		},
	}
	cmd.Flags().IntVar(&settings.QuestionCount, "count", domain.MaxQuestionCount, "number of questions to request (1-50)")
	cmd.Flags().StringVar(&settings.Category, "category", domain.AnyCategory, `category id or "any"`)
	cmd.Flags().StringVar(&settings.Difficulty, "difficulty", "", "easy, medium or hard (empty for all)")
	return cmd
}

type questionSaver interface {
	SaveQuestions(ctx context.Context, categoryID *int, records []domain.QuestionRecord) (int, error)
}

// importQuestions fetches one batch and stores it grouped by category id. OpenTDB only
// reports category names on questions, so the catalog resolves names to ids.
func importQuestions(ctx context.Context, client *opentdb.Client, saver questionSaver, settings domain.Settings, logger *zap.Logger) (int, error) {
	records, err := client.FetchQuestions(ctx, settings)
	if err != nil {
		return 0, fmt.Errorf("fetch questions: %w", err)
	}

	ids := map[string]int{}
	if id, err := strconv.Atoi(settings.Category); err == nil {
		for _, record := range records {
			ids[record.Category] = id
		}
	} else {
		categories, err := client.FetchCategories(ctx)
		if err != nil {
			logger.Warn("category catalog unavailable, importing without ids", zap.Error(err))
		}
		for _, category := range categories {
			ids[category.Name] = category.ID
		}
	}

	groups := map[string][]domain.QuestionRecord{}
	var order []string
	for _, record := range records {
		if _, seen := groups[record.Category]; !seen {
			order = append(order, record.Category)
		}
		groups[record.Category] = append(groups[record.Category], record)
	}

	total := 0
	for _, name := range order {
		var categoryID *int
		if id, ok := ids[name]; ok {
			categoryID = &id
		}
		inserted, err := saver.SaveQuestions(ctx, categoryID, groups[name])
		if err != nil {
			return total, fmt.Errorf("save %q: %w", name, err)
		}
		logger.Info("questions imported", zap.String("category", name), zap.Int("inserted", inserted))
		total += inserted
	}
	return total, nil
}
