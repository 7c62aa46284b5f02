// internal/httpserver/server.go
//
// HTTP wiring for the match service.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", room listing, leaderboard reads.
//   - Room + quick-match endpoints (require auth): create/join/delete,
//     queue enter/status/cancel.
//   - Score submission (public, rate limited per address).
//   - Websocket bridge onto the room pub/sub channels.
//   - JWT + cookie handling and user CRUD live in auth.go.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Game results are never reported here; matches are decided between
//     the two peers on their shared channel.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/blueooh/taja/internal/rooms"
	"github.com/blueooh/taja/internal/scores"
	"github.com/blueooh/taja/internal/transport"
)

// Server bundles the router, the user database and the Redis-backed
// room machinery.
type Server struct {
	r     *chi.Mux
	db    *sql.DB
	dir   *rooms.Directory
	queue *rooms.Queue
	board *scores.Board
	rt    transport.Transport
	log   zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(db *sql.DB, rdb *redis.Client, log zerolog.Logger) *Server {
	s := &Server{
		r:     chi.NewRouter(),
		db:    db,
		dir:   rooms.NewDirectory(rdb, log),
		queue: rooms.NewQueue(rdb, log),
		board: scores.NewBoard(rdb, log),
		rt:    transport.NewRedisTransport(rdb),
		log:   log.With().Str("component", "http").Logger(),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)

	// Everything except the websocket bridge is a short JSON exchange.
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)
		r.Use(corsFromEnv)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"taja","endpoints":["/health","/rooms","/queue/{gameType}","/scores","/realtime/{channel}","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		// Rooms: listing is public; mutation needs an account.
		r.Get("/rooms", s.handleListRooms)
		r.Get("/rooms/{roomID}", s.handleGetRoom)
		r.With(s.requireAuth()).Post("/rooms", s.handleCreateRoom)
		r.With(s.requireAuth()).Delete("/rooms/{roomID}", s.handleDeleteRoom)
		r.With(s.requireAuth()).Post("/rooms/{roomID}/join", s.handleJoinRoom)

		// Quick match queue.
		r.With(s.requireAuth()).Post("/queue/{gameType}", s.handleEnqueue)
		r.With(s.requireAuth()).Get("/queue/{gameType}", s.handleQueueStatus)
		r.With(s.requireAuth()).Delete("/queue/{gameType}", s.handleQueueCancel)

		// Typing race leaderboard and sentences.
		r.Get("/scores", s.handleTopScores)
		r.Post("/scores", s.handleSubmitScore)
		r.Get("/sentences/random", s.handleRandomSentence)

		// Auth + profile (see auth.go).
		s.mountAuthRoutes(r)
	})

	// Websocket bridge onto a room channel. Matches run for minutes, so
	// the bridge must not inherit the request timeout.
	s.r.With(s.requireAuth()).Get("/realtime/{channel}", s.handleRealtime)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:3000.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:3000"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ small util ---------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, `{"error":"`+msg+`"}`, status)
}

// clientAddr strips the port from RemoteAddr; RealIP middleware already
// resolved forwarding headers.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// validGameType reports whether gt names a supported game.
func validGameType(gt string) bool {
	for _, g := range rooms.GameTypes {
		if g == gt {
			return true
		}
	}
	return false
}
