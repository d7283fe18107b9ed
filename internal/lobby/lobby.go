package lobby

import (
	"context"

	"github.com/DoyleJ11/player-draft-backend/internal/draft"
)

type Msg interface{ isLobbyMsg() }

// Publish hands the lobby a render produced by an accepted action.
type Publish struct {
	Render draft.Render
}

func (Publish) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan draft.Render // where this watcher wants to receive renders
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	Version    int64
	NumClients int
	Latest     *draft.Render
}

// Lobby fans renders of one match out to its websocket watchers.
type Lobby struct {
	matchID string
	inbox   chan Msg
	latest  *draft.Render
	clients map[string]chan draft.Render
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLobby(parent context.Context, matchID string, initial *draft.Render) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		matchID: matchID,
		inbox:   make(chan Msg, 64),
		latest:  initial,
		clients: make(map[string]chan draft.Render),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				if l.latest != nil {
					l.send(msg.ClientID, msg.Outbox, *l.latest)
				}

			case Leave:
				delete(l.clients, msg.ClientID)

			case Publish:
				// Renders can race each other on the way in; never go backwards.
				if l.latest != nil && msg.Render.Version < l.latest.Version {
					break
				}
				r := msg.Render
				l.latest = &r
				l.broadcast(r)

			case GetState:
				msg.Reply <- View{
					Version:    l.version(),
					NumClients: len(l.clients),
					Latest:     l.latest,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) version() int64 {
	if l.latest == nil {
		return 0
	}
	return l.latest.Version
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // no more renders
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(r draft.Render) {
	for id, ch := range l.clients {
		l.send(id, ch, r)
	}
}

// send drops a watcher whose outbox is full.
func (l *Lobby) send(id string, ch chan draft.Render, r draft.Render) {
	select {
	case ch <- r:
	default:
		close(ch)
		delete(l.clients, id)
	}
}

func (l *Lobby) MatchID() string { return l.matchID }

// Inbox exposes the lobby's mailbox to the hub and the websocket layer.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }
