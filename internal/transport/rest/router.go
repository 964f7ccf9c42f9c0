// Package rest exposes the small HTTP surface next to the websocket: health,
// the category catalog, and the Redis-backed leaderboard view.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/cache"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/session"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	Store       *session.Store
	Leaderboard cache.LeaderboardCache
	WSHandler   *ws.Handler

	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/categories", categoriesHandler(c.Store)).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/leaderboard", leaderboardHandler(c.Leaderboard)).Methods("GET", "OPTIONS")
	v1.HandleFunc("/ws", c.WSHandler.Serve).Methods("GET")

	return r
}

func categoriesHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.Categories(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load categories")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
	}
}

func leaderboardHandler(leaderboard cache.LeaderboardCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if leaderboard == nil {
			writeError(w, http.StatusNotFound, "leaderboard not available")
			return
		}
		code := mux.Vars(r)["code"]

		top := 20
		if topStr := r.URL.Query().Get("top"); topStr != "" {
			if n, err := strconv.Atoi(topStr); err == nil && n > 0 {
				top = n
			}
		}

		entries, err := leaderboard.GetTop(r.Context(), code, top)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
	}
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
