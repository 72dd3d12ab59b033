package credential

import (
	"context"
	"testing"
	"time"

	"booking-insights/core/cache"
	"booking-insights/core/config"
	"booking-insights/core/database"
	"booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/core/utils"
	"booking-insights/modules/credential/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WhitespaceClientCredentialsAreUnconfigured(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx, logger.Nop()))

	mem := cache.NewMemory()
	t.Cleanup(func() { _ = mem.Close() })
	sealer, err := utils.NewSealer("")
	require.NoError(t, err)

	cfg := &config.Config{
		Redis: config.RedisConfig{LockTTL: time.Second, RecoveryTTL: time.Minute},
		CalCom: config.CalComConfig{
			ProviderID:      "calcom",
			ClientID:        "   ",
			ClientSecret:    "secret",
			RefreshEncoding: config.RefreshEncodingJSON,
			TokenURL:        "http://127.0.0.1:1/token",
			RequestTimeout:  time.Second,
		},
	}
	m := Init(db, mem, sealer, cfg, logger.Nop())

	userID := uuid.New()
	expiring := time.Now().Add(time.Minute)
	refresh := "refresh-1"
	require.NoError(t, m.Repository.Create(ctx, &entity.Credential{
		UserID:               userID,
		ProviderID:           "calcom",
		AccessToken:          "old-access",
		AccessTokenExpiresAt: &expiring,
		RefreshToken:         &refresh,
	}))

	_, appErr := m.TokenService.GetValidAccessToken(ctx, userID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConfig, appErr.Code)
}
