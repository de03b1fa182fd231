package app

import (
	"context"
	"sync"
	"time"

	"trivia-frenzy/internal/domain"
)

const (
	DefaultTickInterval = time.Second
	DefaultRevealDelay  = 1200 * time.Millisecond

	subscriberBuffer = 64
)

// GameOptions tunes the real-time pacing of a game.
type GameOptions struct {
	TickInterval time.Duration
	RevealDelay  time.Duration
}

func (o GameOptions) withDefaults() GameOptions {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.RevealDelay < 0 {
		o.RevealDelay = 0
	} else if o.RevealDelay == 0 {
		o.RevealDelay = DefaultRevealDelay
	}
	return o
}

type answerCommand struct {
	answer string
	reply  chan answerReply
}

type answerReply struct {
	res domain.Resolution
	err error
}

// Game runs one Machine on a single goroutine and fans its events out to subscribers.
type Game struct {
	id       string
	player   string
	settings domain.Settings
	opts     GameOptions
	machine  *Machine

	answers chan answerCommand
	done    chan struct{}

	mu          sync.Mutex
	cancel      context.CancelFunc
	subscribers map[chan Event]struct{}
	replay      []Event
	closed      bool
	summary     *domain.Summary
}

// NewGame builds a game that is not yet running; call Start.
func NewGame(id, player string, settings domain.Settings, questions []domain.QuestionRecord, preparer *Preparer, opts GameOptions) (*Game, error) {
	g := &Game{
		id:          id,
		player:      player,
		settings:    settings,
		opts:        opts.withDefaults(),
		answers:     make(chan answerCommand),
		done:        make(chan struct{}),
		subscribers: make(map[chan Event]struct{}),
	}
	machine, err := NewMachine(player, questions, preparer, g.broadcast)
	if err != nil {
		return nil, err
	}
	g.machine = machine
	return g, nil
}

func (g *Game) ID() string {
	return g.id
}

func (g *Game) Player() string {
	return g.player
}

func (g *Game) Settings() domain.Settings {
	return g.settings
}

// Done is closed when the game loop has exited.
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// Summary returns the results once the game completed.
func (g *Game) Summary() (domain.Summary, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.summary == nil {
		return domain.Summary{}, false
	}
	return *g.summary, true
}

// Start launches the game loop. The loop outlives ctx only until Stop or completion.
func (g *Game) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()
	go g.run(ctx)
}

// Stop abandons a running game and waits for its loop to exit.
func (g *Game) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-g.done
}

func (g *Game) run(ctx context.Context) {
	defer close(g.done)
	defer g.closeSubscribers()

	ticker := time.NewTicker(g.opts.TickInterval)
	defer ticker.Stop()

	var reveal *time.Timer
	var revealC <-chan time.Time
	defer func() {
		if reveal != nil {
			reveal.Stop()
		}
	}()

	_ = g.machine.Begin()

	for {
		select {
		case <-ctx.Done():
			g.machine.Abort()
			g.broadcast(Event{Type: EventAbandoned})
			return
		case <-ticker.C:
			g.machine.Tick()
		case cmd := <-g.answers:
			res, err := g.machine.Submit(cmd.answer)
			cmd.reply <- answerReply{res: res, err: err}
		case <-revealC:
			revealC = nil
			if err := g.machine.Advance(); err != nil {
				continue
			}
			if g.machine.State() == StateComplete {
				return
			}
			ticker.Reset(g.opts.TickInterval)
		}

		if g.machine.State() == StateResolved && revealC == nil {
			reveal = time.NewTimer(g.opts.RevealDelay)
			revealC = reveal.C
		}
	}
}

// Submit sends an answer to the game loop and waits for the resolution.
func (g *Game) Submit(ctx context.Context, answer string) (domain.Resolution, error) {
	cmd := answerCommand{answer: answer, reply: make(chan answerReply, 1)}
	select {
	case g.answers <- cmd:
	case <-g.done:
		return domain.Resolution{}, domain.ErrGameOver
	case <-ctx.Done():
		return domain.Resolution{}, ctx.Err()
	}

	select {
	case reply := <-cmd.reply:
		return reply.res, reply.err
	case <-ctx.Done():
		return domain.Resolution{}, ctx.Err()
	}
}

// Subscribe returns a channel of game events, primed with the current question and its
// resolution (or the final event) so late subscribers can render the screen.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	g.mu.Lock()
	for _, ev := range g.replay {
		ch <- ev
	}
	if g.closed {
		close(ch)
		g.mu.Unlock()
		return ch, func() {}
	}
	g.subscribers[ch] = struct{}{}
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) broadcast(ev Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev.Type {
	case EventQuestion:
		g.replay = []Event{ev}
	case EventResolved:
		g.replay = append(g.replay, ev)
	case EventComplete:
		g.summary = ev.Summary
		g.replay = []Event{ev}
	case EventAbandoned:
		g.replay = []Event{ev}
	}

	for ch := range g.subscribers {
		enqueue(ch, ev)
	}
}

// enqueue delivers ev without blocking. On a full buffer the oldest pending tick is
// dropped; screen events are only dropped when no tick is pending, and an incoming tick
// is discarded rather than displacing one. Callers hold g.mu, so only receivers race.
func enqueue(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}

	pending := make([]Event, 0, cap(ch))
drain:
	for {
		select {
		case p := <-ch:
			pending = append(pending, p)
		default:
			break drain
		}
	}

	drop := -1
	for i, p := range pending {
		if p.Type == EventTick {
			drop = i
			break
		}
	}
	if drop < 0 && ev.Type == EventTick && len(pending) == cap(ch) {
		for _, p := range pending {
			ch <- p
		}
		return
	}
	if drop < 0 && len(pending) == cap(ch) {
		drop = 0
	}

	for i, p := range pending {
		if i != drop {
			ch <- p
		}
	}
	ch <- ev
}

func (g *Game) closeSubscribers() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for ch := range g.subscribers {
		delete(g.subscribers, ch)
		close(ch)
	}
}
