package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"wallet-bundle-analyzer/internal/infrastructure/config"
	"wallet-bundle-analyzer/internal/infrastructure/database"
	"wallet-bundle-analyzer/internal/infrastructure/logger"
)

// Prints the transfers stored in the bubble graph for one wallet.
//
//	go run ./scripts -address <wallet> [-limit 50]
func main() {
	address := flag.String("address", "", "wallet address to inspect")
	limit := flag.Int("limit", 50, "maximum number of transfers to print")
	flag.Parse()

	if *address == "" {
		log.Fatal("missing -address")
	}

	logger, err := logger.NewLoggerWithOptions(logger.Options{Level: "warn", Stderr: true})
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := database.NewNeo4JClient(&cfg.Neo4J, logger)
	if err := client.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to Neo4J:", err)
	}
	defer client.Close(ctx)

	repo := database.NewNeo4JBundleRepository(client, logger)
	connections, err := repo.GetWalletConnections(ctx, *address, *limit)
	if err != nil {
		log.Fatal("Failed to query connections:", err)
	}

	fmt.Printf("Stored transfers for %s: %d\n", *address, len(connections))
	for _, c := range connections {
		direction := "->"
		peer := c.To
		if c.To == *address {
			direction = "<-"
			peer = c.From
		}
		fmt.Printf("  %s %s %.4f SOL  %s  %s\n",
			direction,
			peer,
			c.AmountSOL,
			time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339),
			c.Signature)
	}
}
