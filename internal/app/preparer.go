package app

import (
	"html"
	"math/rand"
	"sync"
	"time"

	"trivia-frenzy/internal/domain"
)

// Preparer turns raw records into displayable questions. It is safe for concurrent use.
type Preparer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPreparer uses rnd for shuffling; nil seeds a source from the clock.
func NewPreparer(rnd *rand.Rand) *Preparer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Preparer{rnd: rnd}
}

// Prepare decodes HTML entities and shuffles the correct answer in among the incorrect ones.
// Every call reshuffles.
func (p *Preparer) Prepare(record domain.QuestionRecord) domain.PreparedQuestion {
	correct := html.UnescapeString(record.CorrectAnswer)

	answers := make([]string, 0, len(record.IncorrectAnswers)+1)
	answers = append(answers, correct)
	for _, incorrect := range record.IncorrectAnswers {
		answers = append(answers, html.UnescapeString(incorrect))
	}

	// rand.Shuffle is a Fisher-Yates permutation.
	p.mu.Lock()
	p.rnd.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	p.mu.Unlock()

	return domain.PreparedQuestion{
		Text:          html.UnescapeString(record.Question),
		Answers:       answers,
		CorrectAnswer: correct,
		Category:      html.UnescapeString(record.Category),
		Difficulty:    record.Difficulty,
	}
}
