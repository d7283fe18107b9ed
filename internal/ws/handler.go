package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/player-draft-backend/internal/draft"
	"github.com/DoyleJ11/player-draft-backend/internal/engine"
	"github.com/DoyleJ11/player-draft-backend/internal/hub"
	"github.com/DoyleJ11/player-draft-backend/internal/lobby"
	"github.com/DoyleJ11/player-draft-backend/internal/metrics"
	"github.com/DoyleJ11/player-draft-backend/internal/types"
)

// Matches is the slice of the draft service a watcher needs.
type Matches interface {
	View(ctx context.Context, matchID string) (draft.Render, error)
	ApplyAction(ctx context.Context, matchID, actorID string, kind engine.CommandType, args draft.ActionArgs) (draft.Render, error)
}

type Deps struct {
	Hub            *hub.Hub
	Matches        Matches
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	OriginPatterns []string
	// IdleTimeout closes a watcher that sends nothing, not even a ping.
	IdleTimeout time.Duration
}

// Handler streams renders of ?match= to the caller and accepts actions sent
// over the same socket.
func Handler(d Deps) http.HandlerFunc {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	idle := d.IdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("match")
		if matchID == "" {
			writeError(w, http.StatusBadRequest, types.ErrorBody{Code: "missing_match", Message: "missing match"})
			return
		}

		current, err := d.Matches.View(r.Context(), matchID)
		if err != nil {
			status, body := types.ErrorFrom(err)
			writeError(w, status, body)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: d.OriginPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// Nothing will change any more: send the result and hang up.
		if current.State == engine.StateFinished {
			send(r.Context(), conn, types.ServerMessage{Type: "Render", Version: current.Version, Render: &current})
			return
		}

		lb, err := d.Hub.Ensure(r.Context(), matchID, &current)
		if err != nil {
			conn.Close(websocket.StatusTryAgainLater, "shutting down")
			return
		}

		d.Metrics.WatcherJoined()
		defer d.Metrics.WatcherLeft()

		out := make(chan draft.Render, 8)
		clientID := uuid.NewString()

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		// The match may have finished between View and Ensure, after its
		// final publish already closed the previous lobby.
		if latest, err := d.Matches.View(r.Context(), matchID); err == nil && latest.State == engine.StateFinished {
			d.Hub.Publish(matchID, latest)
		}

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for rd := range out {
				send(writeCtx, conn, types.ServerMessage{Type: "Render", Version: rd.Version, Render: &rd})
			}
			// Lobby closed our outbox: finished match or slow watcher.
			conn.Close(websocket.StatusNormalClosure, "match closed")
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), idle)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("watcher read ended", zap.String("match_id", matchID), zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				send(r.Context(), conn, types.ServerMessage{Type: "Error", Error: &types.ErrorBody{Code: "bad_json", Message: "bad json"}})
				continue
			}

			switch cm.Type {
			case "Ping":
				send(r.Context(), conn, types.ServerMessage{Type: "Pong"})
			case "Action":
				// Accepted actions come back through the lobby broadcast;
				// only rejections are answered here.
				_, err := d.Matches.ApplyAction(r.Context(), matchID, cm.ActorID, engine.CommandType(cm.Action), draft.ActionArgs{
					Slot:     engine.Slot(cm.Slot),
					PlayerID: cm.PlayerID,
				})
				if err != nil {
					_, body := types.ErrorFrom(err)
					send(r.Context(), conn, types.ServerMessage{Type: "Error", Error: &body})
				}
			default:
				send(r.Context(), conn, types.ServerMessage{Type: "Error", Error: &types.ErrorBody{Code: "unknown_type", Message: "unknown type"}})
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func writeError(w http.ResponseWriter, status int, body types.ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: body})
}
