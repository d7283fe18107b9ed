package types

import (
	"github.com/DoyleJ11/player-draft-backend/internal/draft"
)

// ChallengeRequest accepts a challenge: Challenger is the user who pressed
// "accept" on Owner's challenge.
type ChallengeRequest struct {
	ChatID         string `json:"chat_id"`
	Mode           string `json:"mode"`
	OwnerID        string `json:"owner_id"`
	OwnerName      string `json:"owner_name"`
	ChallengerID   string `json:"challenger_id"`
	ChallengerName string `json:"challenger_name"`
	TargetID       string `json:"target_id,omitempty"`
}

type ActionRequest struct {
	ActorID  string `json:"actor_id"`
	Action   string `json:"action"`
	Slot     string `json:"slot,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

// ClientMessage is what a websocket watcher may send.
type ClientMessage struct {
	Type string `json:"type"` // "Action" | "Ping"
	ActionRequest
}

type ServerMessage struct {
	Type    string        `json:"type"` // "Render" | "Error" | "Pong"
	Version int64         `json:"version,omitempty"`
	Render  *draft.Render `json:"render,omitempty"`
	Error   *ErrorBody    `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
