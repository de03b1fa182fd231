package domain

import (
	"fmt"
	"strconv"
)

const (
	// PointsPerCorrect is awarded for each correctly answered question.
	PointsPerCorrect = 10
	// QuestionSeconds is the countdown length for every question.
	QuestionSeconds = 20
	// LowTimeThreshold marks the remaining seconds at which the countdown is shown as urgent.
	LowTimeThreshold = 10
	// WinPercentage is the minimum percentage of correct answers for a win.
	WinPercentage = 50

	// AnyCategory selects questions from every category.
	AnyCategory = "any"
	// AnswerTypeMultiple is the only answer type the game plays.
	AnswerTypeMultiple = "multiple"

	MinQuestionCount = 1
	MaxQuestionCount = 50
)

// Difficulties is the fixed set of difficulty choices offered on the settings screen.
var Difficulties = []string{"easy", "medium", "hard"}

// QuestionRecord is a raw question as delivered by a question source.
type QuestionRecord struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// PreparedQuestion is a record ready for display: decoded text and shuffled answers.
type PreparedQuestion struct {
	Index         int      `json:"index"`
	Total         int      `json:"total"`
	Text          string   `json:"text"`
	Answers       []string `json:"answers"`
	CorrectAnswer string   `json:"-"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// AnswerRecord is the outcome and timing of one resolved question.
type AnswerRecord struct {
	Correct        bool `json:"correct"`
	ElapsedSeconds int  `json:"elapsedSeconds"`
}

// QuizSession is the mutable state of one play-through.
type QuizSession struct {
	Questions    []QuestionRecord
	CurrentIndex int
	Score        int
	History      []AnswerRecord
}

// NewQuizSession starts a session at the first question with an empty history.
func NewQuizSession(questions []QuestionRecord) QuizSession {
	return QuizSession{
		Questions: questions,
		History:   make([]AnswerRecord, 0, len(questions)),
	}
}

// CorrectCount returns how many history entries were answered correctly.
func (s QuizSession) CorrectCount() int {
	n := 0
	for _, a := range s.History {
		if a.Correct {
			n++
		}
	}
	return n
}

// IncorrectCount returns how many history entries were wrong or timed out.
func (s QuizSession) IncorrectCount() int {
	return len(s.History) - s.CorrectCount()
}

// Settings is the plain data submitted by the settings form.
type Settings struct {
	QuestionCount int    `json:"questionCount" yaml:"question_count"`
	Category      string `json:"category" yaml:"category"`
	Difficulty    string `json:"difficulty" yaml:"difficulty"`
	AnswerType    string `json:"answerType,omitempty" yaml:"answer_type"`
}

// Normalize fills defaults for empty fields.
func (s Settings) Normalize() Settings {
	if s.Category == "" {
		s.Category = AnyCategory
	}
	if s.AnswerType == "" {
		s.AnswerType = AnswerTypeMultiple
	}
	return s
}

// Validate reports ErrInvalidSettings for values the game cannot play.
func (s Settings) Validate() error {
	if s.QuestionCount < MinQuestionCount || s.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("%w: question count %d outside %d..%d", ErrInvalidSettings, s.QuestionCount, MinQuestionCount, MaxQuestionCount)
	}
	if s.Category != AnyCategory {
		if _, err := strconv.Atoi(s.Category); err != nil {
			return fmt.Errorf("%w: category %q", ErrInvalidSettings, s.Category)
		}
	}
	if !IsDifficulty(s.Difficulty) {
		return fmt.Errorf("%w: difficulty %q", ErrInvalidSettings, s.Difficulty)
	}
	if s.AnswerType != AnswerTypeMultiple {
		return fmt.Errorf("%w: answer type %q", ErrInvalidSettings, s.AnswerType)
	}
	return nil
}

// IsDifficulty reports whether d is one of Difficulties.
func IsDifficulty(d string) bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// Category is one entry of the trivia category catalog.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Resolution describes how a question was resolved, for answer reveal and counters.
type Resolution struct {
	Index          int    `json:"index"`
	Selected       string `json:"selected,omitempty"`
	CorrectAnswer  string `json:"correctAnswer"`
	Correct        bool   `json:"correct"`
	TimedOut       bool   `json:"timedOut"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Awarded        int    `json:"awarded"`
	Score          int    `json:"score"`
	CorrectCount   int    `json:"correctCount"`
	IncorrectCount int    `json:"incorrectCount"`
}

// Outcome is the verdict shown on the results screen.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Summary is the results screen data.
type Summary struct {
	Player         string  `json:"player"`
	Score          int     `json:"score"`
	Correct        int     `json:"correct"`
	Total          int     `json:"total"`
	Percentage     int     `json:"percentage"`
	AverageElapsed float64 `json:"averageElapsed"`
	Outcome        Outcome `json:"outcome"`
}
