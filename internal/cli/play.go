package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trivia-frenzy/internal/app"
	"trivia-frenzy/internal/domain"
)

// NewPlayCmd runs a game in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		name     string
		settings domain.Settings
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if !verbose {
				logger = zap.NewNop()
			}

			deps, err := buildComponents(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer deps.close()

			t := newTerminal(deps.service, os.Stdin, cmd.OutOrStdout())
			return t.run(cmd.Context(), name, settings)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "player name (prompted when empty)")
	cmd.Flags().IntVar(&settings.QuestionCount, "count", 10, "number of questions (1-50)")
	cmd.Flags().StringVar(&settings.Category, "category", domain.AnyCategory, `category id or "any"`)
	cmd.Flags().StringVar(&settings.Difficulty, "difficulty", "easy", "easy, medium or hard")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log to stderr while playing")
	return cmd
}

// terminal is the text screen controller. Input lines are read on their own goroutine
// so the countdown keeps running while the player thinks; lines arriving while no
// question is open are discarded.
type terminal struct {
	service *app.GameService
	out     io.Writer
	lines   <-chan string
}

func newTerminal(service *app.GameService, in io.Reader, out io.Writer) *terminal {
	return &terminal{service: service, out: out, lines: readLines(in)}
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return lines
}

func (t *terminal) run(ctx context.Context, name string, settings domain.Settings) error {
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Fprint(t.out, "Enter your name: ")
		line, ok := t.readLine(ctx)
		if !ok {
			return nil
		}
		name = line
	}
	if name == "" {
		name = "Player"
	}

	t.printMenu(ctx, name)

	game, err := t.service.Start(ctx, name, settings)
	if errors.Is(err, domain.ErrNoQuestions) {
		fmt.Fprintln(t.out, "No questions available for these settings. Try another category or difficulty.")
		return nil
	}
	if err != nil {
		return err
	}

	for {
		completed, err := t.play(ctx, game)
		if err != nil || !completed {
			return err
		}

		fmt.Fprint(t.out, "\nPlay again? [y/N]: ")
		line, ok := t.readLine(ctx)
		if !ok || !strings.EqualFold(line, "y") {
			t.service.Abandon(ctx, game.ID())
			fmt.Fprintln(t.out, "Thanks for playing!")
			return nil
		}

		game, err = t.service.Replay(ctx, game.ID())
		if errors.Is(err, domain.ErrNoQuestions) {
			fmt.Fprintln(t.out, "No questions available for these settings.")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (t *terminal) printMenu(ctx context.Context, name string) {
	fmt.Fprintf(t.out, "\nWelcome, %s!\n\nCategories:\n", name)
	fmt.Fprintf(t.out, "  %-4s %s\n", domain.AnyCategory, "Any Category")
	for _, category := range t.service.Categories(ctx) {
		fmt.Fprintf(t.out, "  %-4d %s\n", category.ID, category.Name)
	}
	fmt.Fprintf(t.out, "Difficulties: %s\n", strings.Join(t.service.Difficulties(), ", "))
}

// play drives one game until it completes (true) or is abandoned (false).
func (t *terminal) play(ctx context.Context, game *app.Game) (bool, error) {
	events, cancel := game.Subscribe()
	defer cancel()

	var current *domain.PreparedQuestion
	awaiting := false

	for {
		select {
		case <-ctx.Done():
			t.service.Abandon(context.Background(), game.ID())
			return false, ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return false, nil
			}
			switch ev.Type {
			case app.EventQuestion:
				current = ev.Question
				awaiting = true
				printQuestion(t.out, ev.Question)
			case app.EventTick:
				if ev.Tick.LowTime && ev.Tick.Remaining > 0 {
					fmt.Fprintf(t.out, "  %ds left\n", ev.Tick.Remaining)
				}
			case app.EventResolved:
				awaiting = false
				printResolution(t.out, ev.Resolution)
			case app.EventComplete:
				printSummary(t.out, ev.Summary)
				return true, nil
			case app.EventAbandoned:
				return false, nil
			}

		case line, ok := <-t.lines:
			if !ok || strings.EqualFold(line, "q") {
				t.service.Abandon(ctx, game.ID())
				fmt.Fprintln(t.out, "Game abandoned.")
				return false, nil
			}
			// input typed after a resolution never carries over to the next question
			if !awaiting {
				fmt.Fprintln(t.out, "Too late, wait for the next question.")
				continue
			}
			idx, valid := letterIndex(line, len(current.Answers))
			if !valid {
				fmt.Fprintf(t.out, "Please enter a letter A-%c (q to quit).\n", 'A'+rune(len(current.Answers)-1))
				continue
			}
			awaiting = false
			_, err := t.service.Submit(ctx, game.ID(), current.Answers[idx])
			if err != nil && !errors.Is(err, domain.ErrAnswerRejected) && !errors.Is(err, domain.ErrGameOver) {
				return false, err
			}
		}
	}
}

func (t *terminal) readLine(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-t.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func letterIndex(line string, count int) (int, bool) {
	line = strings.ToUpper(line)
	if len(line) != 1 {
		return -1, false
	}
	idx := int(line[0] - 'A')
	if idx < 0 || idx >= count {
		return -1, false
	}
	return idx, true
}

func printQuestion(out io.Writer, q *domain.PreparedQuestion) {
	fmt.Fprintf(out, "\nQuestion %d/%d", q.Index+1, q.Total)
	if q.Category != "" {
		fmt.Fprintf(out, " [%s]", q.Category)
	}
	fmt.Fprintf(out, "\n%s\n\n", q.Text)
	for i, answer := range q.Answers {
		fmt.Fprintf(out, "  %c. %s\n", 'A'+rune(i), answer)
	}
	fmt.Fprintf(out, "\nYou have %d seconds: ", domain.QuestionSeconds)
}

func printResolution(out io.Writer, res *domain.Resolution) {
	switch {
	case res.Correct:
		fmt.Fprintf(out, "\nCorrect! +%d\n", res.Awarded)
	case res.TimedOut:
		fmt.Fprintf(out, "\nTime's up! The answer was %s\n", res.CorrectAnswer)
	default:
		fmt.Fprintf(out, "\nWrong. The answer was %s\n", res.CorrectAnswer)
	}
	fmt.Fprintf(out, "Score: %d  Correct: %d  Incorrect: %d\n", res.Score, res.CorrectCount, res.IncorrectCount)
}

func printSummary(out io.Writer, s *domain.Summary) {
	fmt.Fprintf(out, "\n=== Results for %s ===\n", s.Player)
	fmt.Fprintf(out, "Final score: %d\n", s.Score)
	fmt.Fprintf(out, "Correct: %d/%d (%d%%)\n", s.Correct, s.Total, s.Percentage)
	fmt.Fprintf(out, "Average time: %.2fs\n", s.AverageElapsed)
	if s.Outcome == domain.OutcomeWin {
		fmt.Fprintln(out, "You win!")
	} else {
		fmt.Fprintln(out, "Better luck next time.")
	}
}
