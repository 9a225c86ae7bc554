package main

import (
	"context"
	"html/template"
	"net/http"

	"github.com/BY1502/ai-interview-service/internal/auth"
	"github.com/BY1502/ai-interview-service/internal/cache"
	"github.com/BY1502/ai-interview-service/internal/config"
	"github.com/BY1502/ai-interview-service/internal/database"
	"github.com/BY1502/ai-interview-service/internal/handler"
	"github.com/BY1502/ai-interview-service/internal/logger"
	"github.com/BY1502/ai-interview-service/internal/repository"
	"github.com/BY1502/ai-interview-service/internal/store"
	"github.com/BY1502/ai-interview-service/internal/workflow"
	"github.com/BY1502/ai-interview-service/pkg"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type application struct {
	Logger    *zap.Logger
	Config    *config.Config
	Tokens    *auth.TokenMaker
	Templates *template.Template
	Handler   *handler.Handler
}

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	log, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Infof("config loaded, %s", cfg)

	forms, err := config.LoadFormOptions(cfg.Forms.OptionsFile)
	if err != nil {
		sugar.Fatal(err)
	}
	crypto, err := pkg.NewCrypto(cfg.Crypto.Secret)
	if err != nil {
		sugar.Fatal(err)
	}
	templates, err := handler.Templates()
	if err != nil {
		sugar.Fatal(err)
	}

	var prefs store.Preferences = store.NewMemoryPreferences()
	if cfg.DB.DSN != "" {
		pool, err := database.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxConns, cfg.DB.MaxConnLifetime)
		if err != nil {
			sugar.Fatal(err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			sugar.Fatal(err)
		}
		repo := repository.NewRepository(pool)
		prefs = &repo.Settings
		sugar.Info("preferences stored in postgres")
	}

	var clients store.ClientStore = store.NewMemoryClients(cfg.Redis.ClientStateTTL)
	var workspaces workflow.WorkspaceStore = store.NewMemoryWorkspaces(cfg.Redis.WorkspaceTTL)
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		if err := cache.Ping(ctx, rdb); err != nil {
			sugar.Fatal(err)
		}
		defer rdb.Close()
		clients = store.NewRedisClients(rdb, crypto, cfg.Redis.ClientStateTTL)
		workspaces = store.NewRedisWorkspaces(rdb, cfg.Redis.WorkspaceTTL)
		sugar.Infow("client state stored in redis", "addr", cfg.Redis.Addr)
	}

	app := &application{
		Logger:    log,
		Config:    cfg,
		Tokens:    auth.NewTokenMaker(cfg.JWT.Secret, cfg.JWT.ClientTokenTTL),
		Templates: templates,
		Handler: &handler.Handler{
			Logger:     log,
			Clients:    clients,
			Workspaces: workspaces,
			Prefs:      prefs,
			HTTPClient: &http.Client{Timeout: cfg.Backend.Timeout},
			Backend:    cfg.Backend,
			Forms:      forms,
		},
	}

	if err := app.serve(); err != nil {
		sugar.Fatal(err)
	}
}
