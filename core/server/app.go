package server

import (
	"context"
	"fmt"

	"booking-insights/core/cache"
	"booking-insights/core/config"
	"booking-insights/core/database"
	"booking-insights/core/logger"
	"booking-insights/core/utils"
	"booking-insights/modules/credential"
)

const devSessionSecret = "booking-insights-development-only"

// App holds the long-lived dependencies shared by the HTTP server and the CLI.
type App struct {
	Config     *config.Config
	Log        *logger.Logger
	DB         *database.Database
	Cache      cache.Cache
	Sealer     *utils.Sealer
	Signer     *utils.SessionSigner
	Credential *credential.Module
}

// Bootstrap opens the database and cache and wires the credential module.
// Callers must Close the returned App.
func Bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrDefault(log)

	sealer, err := utils.NewSealer(cfg.Security.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("token encryption key: %w", err)
	}
	if !sealer.Enabled() {
		log.Warn("Bootstrap:Sealer:Disabled", "hint", "set SECURITY_TOKEN_ENCRYPTION_KEY to encrypt stored tokens")
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	c, err := cache.New(ctx, cfg.Redis, cfg.CalCom.HasOAuthClient(), log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn("Bootstrap:SessionSecret:DevelopmentFallback")
		secret = devSessionSecret
	}

	return &App{
		Config:     cfg,
		Log:        log,
		DB:         db,
		Cache:      c,
		Sealer:     sealer,
		Signer:     utils.NewSessionSigner(secret, cfg.App.Name, cfg.Auth.SessionTTL),
		Credential: credential.Init(db, c, sealer, cfg, log),
	}, nil
}

func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		a.Log.Warn("App:Close:Cache:Error", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn("App:Close:Database:Error", "error", err)
	}
}
