// internal/httpserver/scores.go
//
// Typing race leaderboard endpoints. Submissions are open to guests
// (the nickname is free-form) but rate limited per client address.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blueooh/taja/internal/scores"
	"github.com/blueooh/taja/internal/sentences"
)

type submitScoreReq struct {
	GameType string  `json:"gameType"`
	Nickname string  `json:"nickname"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// handleTopScores returns the leaderboard for one game type.
func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	gt := r.URL.Query().Get("gameType")
	if gt == "" {
		gt = "battle"
	}
	if !validGameType(gt) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}
	top, err := s.board.Top(r.Context(), gt)
	if err != nil {
		s.log.Error().Err(err).Msg("top scores")
		jsonError(w, http.StatusInternalServerError, "scores_failed")
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// handleSubmitScore stores one race result.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var body submitScoreReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.GameType == "" {
		body.GameType = "battle"
	}
	if !validGameType(body.GameType) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}

	entry, err := s.board.Submit(r.Context(), body.GameType, body.Nickname, body.WPM, body.Accuracy, clientAddr(r))
	switch {
	case errors.Is(err, scores.ErrInvalid):
		jsonError(w, http.StatusBadRequest, "invalid_score")
		return
	case errors.Is(err, scores.ErrRateLimited):
		jsonError(w, http.StatusTooManyRequests, "rate_limited")
		return
	case err != nil:
		s.log.Error().Err(err).Msg("submit score")
		jsonError(w, http.StatusInternalServerError, "submit_failed")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleRandomSentence hands out a practice sentence.
func (s *Server) handleRandomSentence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"sentence": sentences.Random()})
}
