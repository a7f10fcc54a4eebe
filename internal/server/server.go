package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/farlane23/mazeduel-backend/internal/game"
)

type Server struct {
	port int

	dir *game.Directory
}

// NewServer loads configuration from the environment (.env honoured when
// present) and wires the room directory.
func NewServer() *http.Server {
	if err := godotenv.Load(); err != nil {
		log.Printf("[NewServer] no .env file loaded: %v", err)
	}

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port <= 0 {
		port = 8080
	}

	dir := game.NewDirectory(game.SpanningTreeFactory{})
	dir.StartJanitor()

	s := &Server{
		port: port,
		dir:  dir,
	}

	// No read/write timeouts: the /ws route hijacks connections that stay
	// open for a whole game.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.port),
		Handler:     s.RegisterRoutes(),
		IdleTimeout: time.Minute,
	}
	log.Printf("[NewServer] listening on :%d", s.port)
	return server
}
