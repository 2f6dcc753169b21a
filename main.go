package main

import (
	api "mail-assistant-backend/cmd/api"
	"mail-assistant-backend/pkg/config"
	"mail-assistant-backend/pkg/database"

	"github.com/charmbracelet/log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (migrations and the vector table included)
	db, err := database.NewSQLiteConnection(cfg)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}

	// Initialize HTTP handler (wires repositories, AI services, usecases)
	handler, err := api.NewHandler(db, cfg)
	if err != nil {
		log.Fatal("failed to initialize services", "error", err)
	}

	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("server exited", "error", err)
	}
}
