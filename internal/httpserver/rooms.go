// internal/httpserver/rooms.go
//
// Room directory and quick-match queue endpoints. The server only
// brokers the rendezvous; once two players share a room id they talk
// to each other over the room channel and the server is out of the
// loop until the next match.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blueooh/taja/internal/rooms"
	"github.com/blueooh/taja/internal/sentences"
)

type createRoomReq struct {
	GameType string `json:"gameType"`
}

// roomRow is the public listing shape; host ids stay internal.
type roomRow struct {
	ID           string `json:"id"`
	HostNickname string `json:"hostNickname"`
	CreatedAt    int64  `json:"createdAt"`
}

// handleListRooms returns the open rooms for one game type.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	gt := r.URL.Query().Get("gameType")
	if !validGameType(gt) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}
	list, err := s.dir.List(r.Context(), gt)
	if err != nil {
		s.log.Error().Err(err).Msg("list rooms")
		jsonError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	rows := make([]roomRow, 0, len(list))
	for _, room := range list {
		rows = append(rows, roomRow{ID: room.ID, HostNickname: room.HostNickname, CreatedAt: room.CreatedAt})
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleGetRoom returns one room by id.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.dir.Get(r.Context(), chi.URLParam(r, "roomID"))
	if errors.Is(err, rooms.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleCreateRoom opens a new waiting room owned by the caller. Typing
// race rooms get their sentence assigned here so both peers race the
// same text.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !validGameType(body.GameType) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}
	me := currentUser(r)

	sentence := ""
	if body.GameType == "battle" {
		sentence = sentences.Random()
	}
	room, err := s.dir.Create(r.Context(), body.GameType, me.ID, me.Username, sentence)
	if err != nil {
		s.log.Error().Err(err).Msg("create room")
		jsonError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	resp := map[string]any{"roomId": room.ID}
	if room.Sentence != "" {
		resp["sentence"] = room.Sentence
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleJoinRoom claims a waiting room for the caller.
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	room, err := s.dir.Join(r.Context(), chi.URLParam(r, "roomID"), me.ID)
	switch {
	case errors.Is(err, rooms.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not_found")
		return
	case errors.Is(err, rooms.ErrAlreadyPlaying):
		jsonError(w, http.StatusConflict, "already_playing")
		return
	case errors.Is(err, rooms.ErrSelfJoin):
		jsonError(w, http.StatusBadRequest, "self_join")
		return
	case err != nil:
		s.log.Error().Err(err).Msg("join room")
		jsonError(w, http.StatusInternalServerError, "join_failed")
		return
	}
	resp := map[string]any{"hostNickname": room.HostNickname}
	if room.Sentence != "" {
		resp["sentence"] = room.Sentence
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeleteRoom removes a waiting room; only its host may do so.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	err := s.dir.Delete(r.Context(), chi.URLParam(r, "roomID"), me.ID)
	if errors.Is(err, rooms.ErrNotHost) {
		jsonError(w, http.StatusForbidden, "not_host")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ------------------------------- queue -------------------------------------

// handleEnqueue enters the quick-match queue for a game type.
func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	gt := chi.URLParam(r, "gameType")
	if !validGameType(gt) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}
	me := currentUser(r)
	seed := ""
	if gt == "battle" {
		seed = sentences.Random()
	}
	match, err := s.queue.Enqueue(r.Context(), gt, me.ID, me.Username, seed)
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue")
		jsonError(w, http.StatusInternalServerError, "enqueue_failed")
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// handleQueueStatus reports whether the caller still holds the slot.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	gt := chi.URLParam(r, "gameType")
	if !validGameType(gt) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}
	me := currentUser(r)
	waiting, ticket, err := s.queue.Status(r.Context(), gt, me.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "status_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waiting": waiting, "roomId": ticket.RoomID})
}

// handleQueueCancel leaves the queue.
func (s *Server) handleQueueCancel(w http.ResponseWriter, r *http.Request) {
	gt := chi.URLParam(r, "gameType")
	if !validGameType(gt) {
		jsonError(w, http.StatusBadRequest, "unknown gameType")
		return
	}
	me := currentUser(r)
	if err := s.queue.Cancel(r.Context(), gt, me.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "cancel_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
