package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/saksaud/physiocare-api/internal/config"
	"github.com/saksaud/physiocare-api/internal/handlers"
	"github.com/saksaud/physiocare-api/internal/httpserver"
	"github.com/saksaud/physiocare-api/internal/identity"
	"github.com/saksaud/physiocare-api/internal/logging"
	authmw "github.com/saksaud/physiocare-api/internal/middleware/auth"
	"github.com/saksaud/physiocare-api/internal/mykafka"
	"github.com/saksaud/physiocare-api/internal/session"
	"github.com/saksaud/physiocare-api/internal/store"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	st := store.New(configuration.DSN())
	// Warm the connection. Failure is not fatal: sign-in degrades to the
	// builtin fallback accounts until the database comes back.
	if err := st.Ping(context.Background()); err != nil {
		logger.Warn("database not reachable at startup", "error", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		defer producer.Close()
	}

	issuer := session.NewIssuer([]byte(configuration.JWT_SECRET))
	chain := identity.NewChain(st)
	resolver := &identity.OAuthResolver{Store: st}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := &httpserver.Deps{
		AuthHandler:      &handlers.AuthHandler{Store: st, Chain: chain, Issuer: issuer, Producer: producer},
		OAuthHandler:     handlers.NewOAuthHandler(configuration, resolver, issuer, producer),
		DashboardHandler: &handlers.DashboardHandler{Store: st},
		Authorizer:       &authmw.Authorizer{Issuer: issuer},
	}
	httpserver.Register(e, deps)

	go func() {
		if err := e.Start(":" + configuration.PORT); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
