package database_test

import (
	"context"
	"fmt"
	"log"

	"github.com/truffle-roll/truffle/pkg/config"
	"github.com/truffle-roll/truffle/pkg/database"
)

// Example demonstrates how to open the quote database
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	stats := db.Stats()
	fmt.Printf("Max connections: %d\n", stats.MaxConns)
	fmt.Printf("Idle connections: %d\n", stats.IdleConns)
}
