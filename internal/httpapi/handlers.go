package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/player-draft-backend/internal/draft"
	"github.com/DoyleJ11/player-draft-backend/internal/engine"
	"github.com/DoyleJ11/player-draft-backend/internal/types"
)

var errBadRequest = errors.New("bad request")

func CreateMatch(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChallengeRequest
		if err := decode(w, r, &req); err != nil {
			writeBadRequest(w, "invalid json body")
			return
		}
		mode, err := engine.ParseMode(req.Mode)
		if err != nil {
			writeError(w, err)
			return
		}

		render, err := svc.CreateMatch(r.Context(), draft.Challenge{
			ChatID:     req.ChatID,
			Mode:       mode,
			Owner:      engine.Participant{ID: req.OwnerID, Name: req.OwnerName},
			Challenger: engine.Participant{ID: req.ChallengerID, Name: req.ChallengerName},
			TargetID:   req.TargetID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, render)
	}
}

func GetMatch(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render, err := svc.View(r.Context(), chi.URLParam(r, "matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, render)
	}
}

func ApplyAction(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ActionRequest
		if err := decode(w, r, &req); err != nil || req.ActorID == "" || req.Action == "" {
			writeBadRequest(w, "actor_id and action are required")
			return
		}

		render, err := svc.ApplyAction(r.Context(), chi.URLParam(r, "matchID"), req.ActorID,
			engine.CommandType(req.Action), draft.ActionArgs{
				Slot:     engine.Slot(req.Slot),
				PlayerID: req.PlayerID,
			})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, render)
	}
}

func GetProfile(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Profile(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func Healthz(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, body := types.ErrorFrom(err)
	writeJSON(w, status, types.ErrorResponse{Error: body})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Error: types.ErrorBody{Code: "bad_request", Message: msg}})
}
