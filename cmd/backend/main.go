package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homely/homely/internal/api"
	"github.com/homely/homely/internal/auth"
	"github.com/homely/homely/internal/config"
	"github.com/homely/homely/internal/domain/cart"
	"github.com/homely/homely/internal/domain/user"
	"github.com/homely/homely/internal/infrastructure/kafka"
	"github.com/homely/homely/internal/infrastructure/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadBackend()
	if err != nil {
		log.Fatalf("[Backend] %v", err)
	}

	log.Println("[Backend] ========================================")
	log.Println("[Backend] Homely reference backend")
	log.Println("[Backend] ========================================")
	log.Printf("[Backend] Store: %s", cfg.StoreDriver)

	backend, closeStore, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("[Backend] Failed to open store: %v", err)
	}
	defer closeStore()

	var publisher cart.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		log.Printf("[Backend] Kafka: %v (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		log.Println("[Backend] Kafka disabled, cart events are not published")
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	userSvc := user.NewService(backend)
	cartSvc := cart.NewService(backend, publisher)

	router := api.NewRouter(
		api.NewAuthHandlers(userSvc, tokens),
		api.NewCartHandlers(cartSvc),
		tokens,
	)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[Backend] Server started on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Backend] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Backend] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Backend] Shutdown error: %v", err)
	}
}
