package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/config"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/observability/logger"
	"github.com/dropDatabas3/keysmith/internal/resource"
	"github.com/dropDatabas3/keysmith/internal/verifier"
)

// El resource server es un proceso separado: valida tokens únicamente contra
// el JWKS publicado por el auth server, nunca contra su store.
func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.example.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic("config: " + err.Error())
	}

	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "keysmith-resource"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	jwksURL := cfg.Resource.JWKSURL
	if jwksURL == "" {
		jwksURL = "http://localhost" + cfg.Server.Addr + "/.well-known/jwks.json"
	}

	v := verifier.New(verifier.Config{
		JWKSURL:  jwksURL,
		Issuer:   cfg.Resource.Issuer,
		Audience: cfg.Resource.Audience,
	})

	router := resource.NewRouter(resource.NewProductStore(), v.Middleware)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpx.NewServer(cfg.Resource.Addr, router)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	log.Info("resource server up",
		zap.String("addr", cfg.Resource.Addr),
		zap.String("jwks_url", jwksURL),
		zap.String("audience", cfg.Resource.Audience))

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
