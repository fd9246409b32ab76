package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atmcore/internal/cash"
	"atmcore/internal/config"
	"atmcore/internal/db"
	"atmcore/internal/handlers"
	"atmcore/internal/models"
	"atmcore/internal/services"
	"atmcore/internal/session"
	"atmcore/internal/store"
	"atmcore/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	accounts := store.NewAccountStore(database)
	cards := store.NewCardStore(database)
	transactions := store.NewTransactionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	sessions := session.NewMemoryStore()
	inventory := cash.NewInventory([]models.Cassette{
		{Denomination: 2000, Count: 500, Capacity: 2000},
		{Denomination: 10000, Count: 200, Capacity: 1000},
	})
	hub := websocket.NewHub()

	authService := services.NewAuthService(txRunner, cards, accounts, sessions, audit, cfg)
	txService := services.NewTransactionService(txRunner, accounts, transactions, inventory, audit, hub, cfg)

	handler := handlers.New(cfg, authService, txService, accounts, inventory, audit, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("ATM core listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
