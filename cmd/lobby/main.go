// cmd/lobby/main.go
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/pad-games/backend/internal/config"
	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/handlers"
	"github.com/pad-games/backend/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()

	pool, err := database.Connect(ctx, config.PostgresURL("lobbydb"))
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	store, err := database.NewLobbyStore(ctx, pool)
	if err != nil {
		logger.Fatalf("failed to init lobby store: %v", err)
	}

	mux := http.NewServeMux()
	handlers.NewLobbyServer(store, store.Ping, logger).Routes(mux)

	server := &http.Server{
		Handler:      middleware.LogMiddleware(logger)(mux),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", config.ListenAddr("3005"))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("lobby service listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error: %v", err)
	}
}
