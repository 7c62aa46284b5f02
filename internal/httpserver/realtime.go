// internal/httpserver/realtime.go
//
// Websocket bridge onto the Redis-backed room channels, for clients
// that cannot speak Redis pub/sub directly. Each socket is one peer on
// one room channel; frames are {event, payload} pairs and the sender
// identity comes from the JWT, not the client.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// bridgedEvents is the full event vocabulary of the match protocol.
// Frames with any other event name are rejected at the bridge.
var bridgedEvents = []string{
	"game_start", "battle_start",
	"move",
	"play_card", "draw_result", "go_decision",
	"progress",
	"opponent_left",
}

type wsFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// handleRealtime upgrades to a websocket and pumps frames between the
// socket and the room channel until either side goes away.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "channel")
	gt, _, ok := strings.Cut(name, ":")
	if !ok || !validGameType(gt) {
		jsonError(w, http.StatusBadRequest, "bad_channel")
		return
	}
	me := currentUser(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{originHost()},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "bridge closed")

	ch, err := s.rt.Open(name, me.ID)
	if err != nil {
		s.log.Error().Err(err).Str("channel", name).Msg("open channel")
		conn.Close(websocket.StatusInternalError, "channel unavailable")
		return
	}
	defer ch.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Channel -> socket. Writes are serialized through one goroutine.
	out := make(chan wsFrame, 32)
	for _, ev := range bridgedEvents {
		ev := ev
		ch.On(ev, func(payload json.RawMessage) {
			select {
			case out <- wsFrame{Event: ev, Payload: payload}:
			default:
				// A stalled socket drops messages rather than the room.
			}
		})
	}
	ch.OnError(func(error) { cancel() })

	go func() {
		for {
			select {
			case frame := <-out:
				wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
				err := wsjson.Write(wctx, conn, frame)
				wcancel()
				if err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Socket -> channel.
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			break
		}
		if !knownEvent(frame.Event) {
			s.log.Debug().Str("event", frame.Event).Msg("dropped unknown event")
			continue
		}
		if err := ch.Send(frame.Event, frame.Payload); err != nil {
			break
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func knownEvent(ev string) bool {
	for _, e := range bridgedEvents {
		if e == ev {
			return true
		}
	}
	return false
}

// originHost derives the allowed websocket origin from CLIENT_ORIGIN.
func originHost() string {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:3000")
	origin = strings.TrimPrefix(origin, "https://")
	origin = strings.TrimPrefix(origin, "http://")
	return origin
}
