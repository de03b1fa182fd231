package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trivia-frenzy/internal/app"
	"trivia-frenzy/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type readyPayload struct {
	Player       string            `json:"player"`
	Categories   []domain.Category `json:"categories"`
	Difficulties []string          `json:"difficulties"`
}

type startedPayload struct {
	GameID   string          `json:"gameId"`
	Settings domain.Settings `json:"settings"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// conn holds the per-connection state: the outbound queue and the game currently on screen.
type conn struct {
	h      *WSHandler
	player string

	send         chan outboundMessage[any]
	closeSignals chan struct{}
	forwarders   sync.WaitGroup

	game *app.Game
}

// ServeWS upgrades HTTP requests to websockets and acts as the screen controller for one player.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	player := r.URL.Query().Get("name")
	if player == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	c := &conn{
		h:            h,
		player:       player,
		send:         make(chan outboundMessage[any], 16),
		closeSignals: make(chan struct{}),
	}
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := ws.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", zap.Error(err))
				// keep draining so producers never block
				for range c.send {
				}
				return
			}
		}
	}()

	ctx := r.Context()
	c.push("ready", readyPayload{
		Player:       player,
		Categories:   h.service.Categories(ctx),
		Difficulties: h.service.Difficulties(),
	})

	for {
		var inbound inboundMessage
		if err := ws.ReadJSON(&inbound); err != nil {
			break
		}
		c.handle(ctx, inbound)
	}

	c.abandon(ctx)
	close(c.closeSignals)
	c.forwarders.Wait()
	close(c.send)
	<-writerDone
}

func (c *conn) handle(ctx context.Context, inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		var settings domain.Settings
		if err := json.Unmarshal(inbound.Payload, &settings); err != nil {
			c.pushError("invalid start payload")
			return
		}
		c.abandon(ctx)
		c.start(c.h.service.Start(ctx, c.player, settings))
	case "replay":
		if c.game == nil {
			c.pushError("no game to replay")
			return
		}
		previous := c.game
		c.game = nil
		c.start(c.h.service.Replay(ctx, previous.ID()))
	case "answer":
		if c.game == nil {
			c.pushError(domain.ErrGameNotFound.Error())
			return
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.pushError("invalid answer payload")
			return
		}
		if _, err := c.h.service.Submit(ctx, c.game.ID(), payload.Answer); err != nil {
			c.pushError(err.Error())
		}
	case "quit":
		c.abandon(ctx)
	default:
		c.pushError("unsupported message type")
	}
}

func (c *conn) start(game *app.Game, err error) {
	if errors.Is(err, domain.ErrNoQuestions) {
		c.push("noQuestions", errorPayload{Message: err.Error()})
		return
	}
	if err != nil {
		c.pushError(err.Error())
		return
	}

	events, cancel := game.Subscribe()
	c.game = game
	c.push("started", startedPayload{GameID: game.ID(), Settings: game.Settings()})

	c.forwarders.Add(1)
	go func() {
		defer c.forwarders.Done()
		defer cancel()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case c.send <- outboundMessage[any]{Type: string(ev.Type), Payload: ev.Payload()}:
				case <-c.closeSignals:
					return
				}
			case <-c.closeSignals:
				return
			}
		}
	}()
}

func (c *conn) abandon(ctx context.Context) {
	if c.game == nil {
		return
	}
	c.h.service.Abandon(ctx, c.game.ID())
	c.game = nil
}

func (c *conn) push(typ string, payload any) {
	c.send <- outboundMessage[any]{Type: typ, Payload: payload}
}

func (c *conn) pushError(message string) {
	c.push("error", errorPayload{Message: message})
}
