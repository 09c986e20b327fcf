package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homely/homely/internal/cartstate"
	"github.com/homely/homely/internal/client"
	"github.com/homely/homely/internal/config"
	"github.com/homely/homely/internal/infrastructure/store"
	"github.com/homely/homely/internal/web"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadWeb()
	if err != nil {
		log.Fatalf("[Web] %v", err)
	}

	log.Println("[Web] ========================================")
	log.Println("[Web] Homely storefront gateway")
	log.Println("[Web] ========================================")
	log.Printf("[Web] Environment: %s", cfg.Environment)
	log.Printf("[Web] Backend: %s", cfg.BackendURL)

	backend, closeStore, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Fatalf("[Web] Failed to open store: %v", err)
	}
	defer closeStore()

	policy := cartstate.KeepLocal
	if cfg.CartFailurePolicy == "rollback" {
		policy = cartstate.Rollback
	}

	api := client.New(cfg.BackendURL, cfg.BackendTimeout)
	srv := web.NewServer(web.Config{
		Auth:          api,
		Remotes:       web.ClientRemotes(api),
		Backend:       backend,
		Secure:        cfg.Production(),
		FailurePolicy: policy,
	})
	router := web.NewRouter(srv, web.RouterOptions{
		WebDir: cfg.WebDir,
		Debug:  !cfg.Production(),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[Web] Server started on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[Web] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Web] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Web] Shutdown error: %v", err)
	}
}
