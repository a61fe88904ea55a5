// cmd/chat/main.go
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

	"github.com/pad-games/backend/internal/chat"
	"github.com/pad-games/backend/internal/config"
	"github.com/pad-games/backend/internal/handlers"
	"github.com/pad-games/backend/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()

	repo, err := chat.ConnectMongo(ctx, config.MongoURI())
	if err != nil {
		logger.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer repo.Close(ctx)

	hub := chat.NewHub(logger)

	mux := http.NewServeMux()
	handlers.NewChatServer(repo, hub, logger).Routes(mux)

	// WebSocket connections stay open indefinitely, so no write timeout here.
	server := &http.Server{
		Handler:     middleware.LogMiddleware(logger)(mux),
		ReadTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", config.ListenAddr("3010"))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("chat service listening on %s", l.Addr())

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
