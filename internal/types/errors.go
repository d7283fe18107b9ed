package types

import (
	"errors"
	"net/http"

	"github.com/DoyleJ11/player-draft-backend/internal/draft"
	"github.com/DoyleJ11/player-draft-backend/internal/engine"
	"github.com/DoyleJ11/player-draft-backend/internal/store"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// First match wins; more specific errors go first.
var errorMappings = []errorMapping{
	{draft.ErrConcurrentAction, http.StatusConflict, "processing", "Processing, try again."},
	{engine.ErrNotYourTurn, http.StatusForbidden, "not_your_turn", "It's not your turn."},
	{engine.ErrNotParticipant, http.StatusForbidden, "not_participant", "You are not part of this match."},
	{draft.ErrNotChallengeTarget, http.StatusForbidden, "not_challenge_target", "This challenge is for someone else."},
	{draft.ErrSelfChallenge, http.StatusBadRequest, "self_challenge", "You can't challenge yourself."},
	{draft.ErrModeDisabled, http.StatusBadRequest, "mode_disabled", "This mode is currently disabled."},
	{engine.ErrUnknownMode, http.StatusBadRequest, "unknown_mode", "Unknown mode."},
	{draft.ErrPoolTooSmall, http.StatusConflict, "pool_too_small", "Not enough players for this mode yet."},
	{store.ErrNotFound, http.StatusNotFound, "match_not_found", "Match not found or expired."},
	{store.ErrMatchExists, http.StatusConflict, "match_exists", "Match already exists."},
	{engine.ErrNoPendingPlayer, http.StatusConflict, "no_pending_player", "Draw a player first."},
	{engine.ErrSlotOccupied, http.StatusConflict, "slot_occupied", "That slot is already filled."},
	{engine.ErrSlotEmpty, http.StatusConflict, "slot_empty", "That slot is empty."},
	{engine.ErrUnknownSlot, http.StatusBadRequest, "unknown_slot", "That slot is not part of this lineup."},
	{engine.ErrBudgetExhausted, http.StatusConflict, "budget_exhausted", "No uses left."},
	{engine.ErrPoolExhausted, http.StatusConflict, "pool_exhausted", "No players left to draw."},
	{engine.ErrStaleReference, http.StatusConflict, "trade_aborted", "Trade cancelled: a player moved."},
	{engine.ErrTradeInProgress, http.StatusConflict, "trade_in_progress", "A trade is already in progress."},
	{engine.ErrNoTrade, http.StatusConflict, "no_trade", "There is no active trade."},
	{engine.ErrAlreadyConfirmed, http.StatusConflict, "already_confirmed", "You already confirmed."},
	{engine.ErrPlayerNotOnRoster, http.StatusConflict, "player_not_on_roster", "That player is not on the right roster."},
	{engine.ErrInvalidState, http.StatusConflict, "invalid_state", "That action is not available right now."},
	{engine.ErrUnsupportedCommand, http.StatusBadRequest, "unsupported_action", "Unknown action."},
	{engine.ErrUnknownPlayer, http.StatusNotFound, "unknown_player", "Player not found."},
}

// ErrorFrom maps err to an HTTP status and a stable code/message pair that
// chat adapters can show verbatim.
func ErrorFrom(err error) (int, ErrorBody) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, ErrorBody{Code: m.code, Message: m.message}
		}
	}
	return http.StatusInternalServerError, ErrorBody{Code: "internal", Message: "Something went wrong."}
}
