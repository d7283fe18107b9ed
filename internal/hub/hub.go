package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/player-draft-backend/internal/draft"
	"github.com/DoyleJ11/player-draft-backend/internal/engine"
	"github.com/DoyleJ11/player-draft-backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

type GetLobby struct {
	MatchID string
	Reply   chan *lobby.Lobby
}

// EnsureLobby returns the match's lobby, creating it seeded with Initial.
type EnsureLobby struct {
	MatchID string
	Initial *draft.Render // only used if creation happens
	Reply   chan *lobby.Lobby
}

type RemoveLobby struct {
	MatchID string
}

type CountLobbies struct {
	Reply chan int
}

type ShutdownHub struct{}

func (GetLobby) isHubMsg()     {}
func (EnsureLobby) isHubMsg()  {}
func (RemoveLobby) isHubMsg()  {}
func (CountLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

// Hub owns one lobby per watched match.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLobby:
				msg.Reply <- h.lobbies[msg.MatchID] // may be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.MatchID]; lb != nil {
					msg.Reply <- lb
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.MatchID, msg.Initial)
				h.lobbies[msg.MatchID] = lb
				msg.Reply <- lb

			case RemoveLobby:
				if lb := h.lobbies[msg.MatchID]; lb != nil {
					lb.Inbox() <- lobby.Shutdown{}
					delete(h.lobbies, msg.MatchID)
				}

			case CountLobbies:
				msg.Reply <- len(h.lobbies)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for id, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		default:
			// its context is cancelled below anyway
		}
		delete(h.lobbies, id)
	}
	h.cancel()
}

// Ensure asks the hub loop for the match's lobby.
func (h *Hub) Ensure(ctx context.Context, matchID string, initial *draft.Render) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- EnsureLobby{MatchID: matchID, Initial: initial, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, h.ctx.Err()
	}
	select {
	case lb := <-reply:
		return lb, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, h.ctx.Err()
	}
}

// Publish implements draft.Publisher. Only matches somebody watches have a
// lobby; renders for the rest are dropped. A finished match's lobby is shut
// down after its final render so watchers disconnect cleanly.
func (h *Hub) Publish(matchID string, r draft.Render) {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- GetLobby{MatchID: matchID, Reply: reply}:
	case <-h.ctx.Done():
		return
	}
	var lb *lobby.Lobby
	select {
	case lb = <-reply:
	case <-h.ctx.Done():
		return
	}
	if lb == nil {
		return
	}

	select {
	case lb.Inbox() <- lobby.Publish{Render: r}:
	default:
		h.log.Warn("lobby inbox full, render dropped",
			zap.String("match_id", matchID),
			zap.Int64("version", r.Version),
		)
	}

	if r.State == engine.StateFinished {
		select {
		case h.inbox <- RemoveLobby{MatchID: matchID}:
		case <-h.ctx.Done():
		}
	}
}
