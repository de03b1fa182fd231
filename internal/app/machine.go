package app

import (
	"math"

	"trivia-frenzy/internal/domain"
)

type State int

const (
	StateIdle State = iota
	StateAwaitingAnswer
	StateResolved
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateResolved:
		return "resolved"
	case StateComplete:
		return "complete"
	default:
		return "idle"
	}
}

type EventType string

const (
	EventQuestion  EventType = "question"
	EventTick      EventType = "tick"
	EventResolved  EventType = "resolved"
	EventComplete  EventType = "complete"
	EventAbandoned EventType = "abandoned"
)

// Tick is the countdown view of one elapsed second.
type Tick struct {
	Index     int  `json:"index"`
	Remaining int  `json:"remaining"`
	LowTime   bool `json:"lowTime"`
}

// Event is emitted by the state machine for screen controllers. Exactly one payload field is set
// for each type, except EventAbandoned which carries none.
type Event struct {
	Type       EventType
	Question   *domain.PreparedQuestion
	Tick       *Tick
	Resolution *domain.Resolution
	Summary    *domain.Summary
}

// Payload returns the populated payload for the event type.
func (e Event) Payload() any {
	switch e.Type {
	case EventQuestion:
		return e.Question
	case EventTick:
		return e.Tick
	case EventResolved:
		return e.Resolution
	case EventComplete:
		return e.Summary
	default:
		return struct{}{}
	}
}

// Machine is the question/answer/timer state machine for a single session.
// It holds no locks; one goroutine drives it.
type Machine struct {
	player   string
	seconds  int
	session  domain.QuizSession
	state    State
	current  domain.PreparedQuestion
	timer    Timer
	preparer *Preparer
	emit     func(Event)
}

// NewMachine fails with domain.ErrNoQuestions when questions is empty. emit may be nil.
func NewMachine(player string, questions []domain.QuestionRecord, preparer *Preparer, emit func(Event)) (*Machine, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if preparer == nil {
		preparer = NewPreparer(nil)
	}
	if emit == nil {
		emit = func(Event) {}
	}
	return &Machine{
		player:   player,
		seconds:  domain.QuestionSeconds,
		session:  domain.NewQuizSession(questions),
		preparer: preparer,
		emit:     emit,
	}, nil
}

// Begin shows the first question. It is only valid once, from Idle.
func (m *Machine) Begin() error {
	if m.state != StateIdle {
		return domain.ErrAnswerRejected
	}
	m.beginQuestion(0)
	return nil
}

func (m *Machine) beginQuestion(index int) {
	m.session.CurrentIndex = index
	prepared := m.preparer.Prepare(m.session.Questions[index])
	prepared.Index = index
	prepared.Total = len(m.session.Questions)
	m.current = prepared
	m.state = StateAwaitingAnswer

	question := prepared
	m.emit(Event{Type: EventQuestion, Question: &question})
	m.timer.Start(m.seconds, m.onTick, m.onExpire)
}

// Submit locks in an answer for the current question.
func (m *Machine) Submit(selected string) (domain.Resolution, error) {
	if m.state != StateAwaitingAnswer {
		return domain.Resolution{}, domain.ErrAnswerRejected
	}
	elapsed := m.seconds - m.timer.Remaining()
	m.timer.Stop()

	correct := selected == m.current.CorrectAnswer
	return m.resolve(selected, correct, false, elapsed), nil
}

// Tick advances the question countdown by one second.
func (m *Machine) Tick() {
	m.timer.Tick()
}

func (m *Machine) onTick(remaining int) {
	m.emit(Event{Type: EventTick, Tick: &Tick{
		Index:     m.session.CurrentIndex,
		Remaining: remaining,
		LowTime:   LowTime(remaining),
	}})
}

func (m *Machine) onExpire() {
	if m.state != StateAwaitingAnswer {
		return
	}
	m.resolve("", false, true, m.seconds)
}

func (m *Machine) resolve(selected string, correct, timedOut bool, elapsed int) domain.Resolution {
	m.session.History = append(m.session.History, domain.AnswerRecord{
		Correct:        correct,
		ElapsedSeconds: elapsed,
	})
	awarded := 0
	if correct {
		awarded = domain.PointsPerCorrect
		m.session.Score += awarded
	}
	m.state = StateResolved

	res := domain.Resolution{
		Index:          m.session.CurrentIndex,
		Selected:       selected,
		CorrectAnswer:  m.current.CorrectAnswer,
		Correct:        correct,
		TimedOut:       timedOut,
		ElapsedSeconds: elapsed,
		Awarded:        awarded,
		Score:          m.session.Score,
		CorrectCount:   m.session.CorrectCount(),
		IncorrectCount: m.session.IncorrectCount(),
	}
	emitted := res
	m.emit(Event{Type: EventResolved, Resolution: &emitted})
	return res
}

// Advance moves past a resolved question to the next one or to Complete.
func (m *Machine) Advance() error {
	if m.state != StateResolved {
		return domain.ErrNotResolved
	}
	next := m.session.CurrentIndex + 1
	if next < len(m.session.Questions) {
		m.beginQuestion(next)
		return nil
	}

	m.state = StateComplete
	summary := m.Summary()
	m.emit(Event{Type: EventComplete, Summary: &summary})
	return nil
}

// Abort stops the countdown so no further timer callbacks fire.
func (m *Machine) Abort() {
	m.timer.Stop()
}

// Summary computes the results screen from the history so far.
func (m *Machine) Summary() domain.Summary {
	total := len(m.session.Questions)
	correct := m.session.CorrectCount()

	summary := domain.Summary{
		Player:  m.player,
		Score:   m.session.Score,
		Correct: correct,
		Total:   total,
		Outcome: domain.OutcomeLoss,
	}
	if total == 0 {
		return summary
	}

	elapsed := 0
	for _, a := range m.session.History {
		elapsed += a.ElapsedSeconds
	}
	summary.Percentage = int(math.Round(100 * float64(correct) / float64(total)))
	summary.AverageElapsed = float64(elapsed) / float64(total)
	if summary.Percentage >= domain.WinPercentage {
		summary.Outcome = domain.OutcomeWin
	}
	return summary
}

func (m *Machine) State() State {
	return m.state
}

// Current returns the question on screen.
func (m *Machine) Current() domain.PreparedQuestion {
	return m.current
}

func (m *Machine) Remaining() int {
	return m.timer.Remaining()
}

// Session returns a copy of the session state.
func (m *Machine) Session() domain.QuizSession {
	s := m.session
	s.History = append([]domain.AnswerRecord(nil), m.session.History...)
	return s
}
