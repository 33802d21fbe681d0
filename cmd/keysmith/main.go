package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/keysmith/internal/app"
	"github.com/dropDatabas3/keysmith/internal/config"
	httpx "github.com/dropDatabas3/keysmith/internal/http"
	"github.com/dropDatabas3/keysmith/internal/http/handlers"
	"github.com/dropDatabas3/keysmith/internal/jwt"
	"github.com/dropDatabas3/keysmith/internal/metrics"
	"github.com/dropDatabas3/keysmith/internal/observability/logger"
	"github.com/dropDatabas3/keysmith/internal/rate"
	"github.com/dropDatabas3/keysmith/internal/security/password"
	"github.com/dropDatabas3/keysmith/internal/store/core"
	"github.com/dropDatabas3/keysmith/internal/store/memory"
	"github.com/dropDatabas3/keysmith/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.example.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		// sin config no hay logger configurado todavía
		panic("config: " + err.Error())
	}

	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "keysmith"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("store open", zap.Error(err))
	}
	defer store.Close()

	if cfg.Storage.Driver == "memory" {
		seedDev(ctx, store, log)
	}

	ks := jwt.NewKeystore(store)
	issuer := jwt.NewIssuer(cfg.JWT.Issuer, ks)
	if ttl, err := cfg.AccessTTL(); err == nil {
		issuer.AccessTTL = ttl
	}

	rotator := jwt.NewRotator(store, logger.Named("rotator"))
	rotator.Interval, _ = cfg.RotateInterval()
	rotator.RenewalWindow, _ = cfg.RenewalWindow()
	rotator.Validity, _ = cfg.KeyValidity()
	rotator.OnRotate = func() {
		ks.Invalidate()
		if metrics.RotationCycles != nil {
			metrics.RotationCycles.WithLabelValues("rotated").Inc()
		}
	}

	container := &app.Container{
		Cfg:     cfg,
		Store:   store,
		Keys:    ks,
		Issuer:  issuer,
		Limiter: buildLimiter(cfg, log),
	}

	metricsHandler := metrics.Register(nil)

	router := httpx.NewRouter(httpx.RouterDeps{
		Log:             logger.Named("http"),
		JWKS:            handlers.NewJWKSHandler(container),
		Login:           handlers.NewAuthLoginHandler(container),
		Register:        handlers.NewRegisterHandler(container),
		ProfileGet:      handlers.NewProfileGetHandler(container),
		ProfilePut:      handlers.NewProfileUpdateHandler(container),
		Readyz:          handlers.NewReadyzHandler(container),
		Metrics:         metricsHandler,
		Bearer:          handlers.RequireBearer(container),
		AdminAPIKey:     cfg.Admin.APIKey,
		AdminKeysList:   handlers.NewAdminKeysListHandler(container),
		AdminKeysRotate: handlers.NewAdminKeysRotateHandler(container, rotator),
	})

	// el rotator corre en background mientras el server atiende requests
	go rotator.Run(ctx)

	srv := httpx.NewServer(cfg.Server.Addr, router)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	log.Info("keysmith up", zap.String("addr", cfg.Server.Addr), zap.String("issuer", cfg.JWT.Issuer))

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
	log.Info("keysmith down")
}

func openStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return memory.New(), nil
	case "postgres":
		s, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Flags.Migrate {
			if err := s.RunMigrations(ctx); err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil
	default:
		return nil, errors.New("storage.driver: " + cfg.Storage.Driver)
	}
}

func buildLimiter(cfg *config.Config, log *zap.Logger) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	window, err := cfg.LoginRateWindow()
	if err != nil {
		log.Warn("rate window inválido, limiter deshabilitado", zap.Error(err))
		return nil
	}
	if cfg.Rate.Redis.Addr != "" {
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis.Addr, DB: cfg.Rate.Redis.DB})
		return rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.Login.Limit, window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Login.Limit, window)
}

// seedDev deja un client y un usuario de prueba cuando corre con el store en
// memoria; sin esto el primer login en dev no tiene contra qué autenticar.
func seedDev(ctx context.Context, store core.Store, log *zap.Logger) {
	_ = store.CreateClient(ctx, &core.Client{
		ID:        uuid.NewString(),
		ClientID:  "client1",
		Name:      "Demo Client",
		ClientURL: "https://client1.example.com",
	})
	hash, err := password.Hash("Password@123")
	if err != nil {
		return
	}
	u := &core.User{
		ID:           uuid.NewString(),
		Email:        "demo@example.com",
		FirstName:    "Demo",
		PasswordHash: hash,
		Roles:        []string{"User", "Admin"},
	}
	if err := store.CreateUser(ctx, u); err == nil {
		log.Info("dev seed listo", zap.String("email", u.Email), zap.String("client_id", "client1"))
	}
}
