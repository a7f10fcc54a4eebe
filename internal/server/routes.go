package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/farlane23/mazeduel-backend/internal/game"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HelloWorldHandler)

	r.HandleFunc("/rooms", s.CreateRoomHandler).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/ws", s.WebSocketHandler)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false") // Credentials not allowed with wildcard origins

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"message": "mazeduel server up"}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[HelloWorldHandler] error encoding response: %v", err)
	}
}

// CreateRoomHandler allocates a room and returns its join code.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, err := s.dir.CreateRoom()
	if err != nil {
		if errors.Is(err, game.ErrCodesExhausted) {
			log.Printf("[CreateRoomHandler] allocation exhausted")
			http.Error(w, "no room codes available", http.StatusServiceUnavailable)
			return
		}
		log.Printf("[CreateRoomHandler] create failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"roomId": room.Code}); err != nil {
		log.Printf("[CreateRoomHandler] error encoding response: %v", err)
	}
}

// WebSocketHandler hands the connection to the game package.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	game.ServeWS(s.dir, w, r)
}
