package main

import (
	"log"

	"github.com/farlane23/mazeduel-backend/internal/server"
)

func main() {
	srv := server.NewServer()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("[main] server stopped: %v", err)
	}
}
