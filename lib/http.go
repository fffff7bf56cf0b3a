package lib

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sortcha/sortcha/internal"
	"github.com/sortcha/sortcha/lib/game"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are out the door already, all we can do is log
		internal.GetFilteredHTTPLogger().Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

type generateRequest struct {
	GameID     string `json:"gameId"`
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		lg.Debug("malformed generate request", "err", err)
		respondError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	var difficulty game.Difficulty
	if req.Difficulty != "" {
		var err error
		difficulty, err = game.ParseDifficulty(req.Difficulty)
		if err != nil {
			lg.Debug("bad difficulty", "difficulty", req.Difficulty)
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	issued, err := s.IssueChallenge(r.Context(), req.GameID, difficulty)
	switch {
	case errors.Is(err, game.ErrUnknownGame), errors.Is(err, game.ErrNoEligibleGame):
		lg.Debug("no matching game", "gameId", req.GameID, "difficulty", difficulty)
		respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		lg.Error("can't issue challenge", "err", err)
		respondError(w, http.StatusInternalServerError, "can't issue challenge")
		return
	}

	lg.Debug("issued challenge", "token", issued.Token, "gameId", issued.GameID, "difficulty", issued.Difficulty)
	respondJSON(w, http.StatusOK, issued)
}

type verifyRequest struct {
	Token   string   `json:"token"`
	Outcome *Outcome `json:"outcome"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		lg.Debug("malformed verify request", "err", err)
		if errors.Is(err, ErrInvalidOutcome) {
			respondError(w, http.StatusBadRequest, err.Error())
		} else {
			respondError(w, http.StatusBadRequest, "request body is not valid JSON")
		}
		return
	}

	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}
	if req.Outcome == nil {
		respondError(w, http.StatusBadRequest, "outcome is required")
		return
	}

	result, err := s.Verify(r.Context(), req.Token, *req.Outcome)
	if err != nil {
		lg.Error("can't verify challenge", "err", err)
		respondError(w, http.StatusInternalServerError, "can't verify challenge")
		return
	}

	lg.Debug("verify decision", "token", req.Token, "verified", result.Verified, "reason", result.Reason)
	respondJSON(w, http.StatusOK, result)
}
