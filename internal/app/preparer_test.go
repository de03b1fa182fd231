package app

import (
	"math/rand"
	"sort"
	"testing"

	"trivia-frenzy/internal/domain"
)

func TestPrepareDecodesEntities(t *testing.T) {
	p := NewPreparer(rand.New(rand.NewSource(1)))
	prepared := p.Prepare(domain.QuestionRecord{
		Question:         "Who wrote &quot;Hamlet&quot; &amp; &#039;Macbeth&#039;?",
		CorrectAnswer:    "Shakespeare &amp; co",
		IncorrectAnswers: []string{"Marlowe", "&lt;nobody&gt;"},
	})

	if prepared.Text != `Who wrote "Hamlet" & 'Macbeth'?` {
		t.Fatalf("question not decoded: %q", prepared.Text)
	}
	if prepared.CorrectAnswer != "Shakespeare & co" {
		t.Fatalf("correct answer not decoded: %q", prepared.CorrectAnswer)
	}
	found := false
	for _, a := range prepared.Answers {
		if a == "<nobody>" {
			found = true
		}
	}
	if !found {
		t.Fatalf("incorrect answers not decoded: %v", prepared.Answers)
	}
}

func TestPrepareAnswersArePermutation(t *testing.T) {
	p := NewPreparer(rand.New(rand.NewSource(42)))
	record := domain.QuestionRecord{
		Question:         "Pick one",
		CorrectAnswer:    "A",
		IncorrectAnswers: []string{"B", "C", "D"},
	}

	for i := 0; i < 50; i++ {
		prepared := p.Prepare(record)
		got := append([]string(nil), prepared.Answers...)
		sort.Strings(got)
		want := []string{"A", "B", "C", "D"}
		if len(got) != len(want) {
			t.Fatalf("expected %d answers, got %v", len(want), prepared.Answers)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("answers %v are not a permutation of %v", prepared.Answers, want)
			}
		}
	}
}

func TestPrepareReshufflesAcrossCalls(t *testing.T) {
	p := NewPreparer(rand.New(rand.NewSource(7)))
	record := domain.QuestionRecord{
		Question:         "Order?",
		CorrectAnswer:    "1",
		IncorrectAnswers: []string{"2", "3", "4"},
	}

	firstPositions := make(map[int]bool)
	for i := 0; i < 200; i++ {
		prepared := p.Prepare(record)
		for idx, a := range prepared.Answers {
			if a == "1" {
				firstPositions[idx] = true
			}
		}
	}
	if len(firstPositions) != 4 {
		t.Fatalf("expected the correct answer to visit all 4 positions, saw %v", firstPositions)
	}
}

func TestPrepareSingleAnswer(t *testing.T) {
	p := NewPreparer(nil)
	prepared := p.Prepare(domain.QuestionRecord{Question: "Only one?", CorrectAnswer: "Yes"})
	if len(prepared.Answers) != 1 || prepared.Answers[0] != "Yes" {
		t.Fatalf("unexpected answers %v", prepared.Answers)
	}
}
