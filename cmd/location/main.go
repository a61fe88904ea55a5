// cmd/location/main.go
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

	"github.com/pad-games/backend/internal/cache"
	"github.com/pad-games/backend/internal/config"
	"github.com/pad-games/backend/internal/database"
	"github.com/pad-games/backend/internal/handlers"
	"github.com/pad-games/backend/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()

	pool, err := database.Connect(ctx, config.PostgresURL("locationdb"))
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo, err := database.NewLocationRepo(ctx, pool)
	if err != nil {
		logger.Fatalf("failed to init location repo: %v", err)
	}

	rdb, err := cache.Connect(ctx, config.RedisAddr(), config.GetenvInt("REDIS_DB", 0))
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	mux := http.NewServeMux()
	handlers.NewLocationServer(repo, cache.NewLocationCache(rdb), logger).Routes(mux)

	server := &http.Server{
		Handler:      middleware.LogMiddleware(logger)(mux),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", config.ListenAddr("3008"))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("location service listening on %s", l.Addr())

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
