package credential

import (
	"strings"

	"booking-insights/core/cache"
	"booking-insights/core/config"
	"booking-insights/core/database"
	"booking-insights/core/logger"
	"booking-insights/core/utils"
	"booking-insights/modules/credential/repository"
	"booking-insights/modules/credential/service"
)

type Module struct {
	Repository   *repository.CredentialRepository
	TokenService *service.TokenService
}

// Init wires the credential store and refresher. It exposes no routes.
func Init(db database.IDatabase, c cache.Cache, sealer *utils.Sealer, cfg *config.Config, log *logger.Logger) *Module {
	repo := repository.NewCredentialRepository(db, sealer, log)
	exchanger := service.NewExchanger(cfg.CalCom, nil, log)

	// Blank or whitespace-only client credentials count as unconfigured.
	var clientID, clientSecret string
	if cfg.CalCom.HasOAuthClient() {
		clientID = strings.TrimSpace(cfg.CalCom.ClientID)
		clientSecret = strings.TrimSpace(cfg.CalCom.ClientSecret)
	}
	tokenSvc := service.NewTokenService(repo, exchanger, c, sealer, service.Options{
		ProviderID:   cfg.CalCom.ProviderID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LockTTL:      cfg.Redis.LockTTL,
		RecoveryTTL:  cfg.Redis.RecoveryTTL,
	}, log)
	return &Module{Repository: repo, TokenService: tokenSvc}
}
