package service

import (
	"context"
	stderrors "errors"
	"time"

	"booking-insights/core/cache"
	"booking-insights/core/constants"
	"booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/core/utils"
	"booking-insights/modules/credential/entity"
	"booking-insights/modules/credential/repository"

	"github.com/google/uuid"
)

type TokenServiceInterface interface {
	GetValidAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError)
}

type Options struct {
	ProviderID   string
	ClientID     string
	ClientSecret string
	// LockTTL bounds how long a crashed refresher can block others.
	LockTTL time.Duration
	// RecoveryTTL is how long an unpersisted token set is kept for replay.
	RecoveryTTL time.Duration
}

type TokenService struct {
	repo      repository.CredentialRepositoryInterface
	exchanger Exchanger
	cache     cache.Cache
	sealer    *utils.Sealer
	opts      Options
	log       *logger.Logger
	now       func() time.Time
}

func NewTokenService(
	repo repository.CredentialRepositoryInterface,
	exchanger Exchanger,
	c cache.Cache,
	sealer *utils.Sealer,
	opts Options,
	log *logger.Logger,
) *TokenService {
	if opts.ProviderID == "" {
		opts.ProviderID = constants.ProviderCalCom
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.RecoveryTTL <= 0 {
		opts.RecoveryTTL = 24 * time.Hour
	}
	return &TokenService{
		repo:      repo,
		exchanger: exchanger,
		cache:     c,
		sealer:    sealer,
		opts:      opts,
		log:       logger.OrDefault(log),
		now:       time.Now,
	}
}

// recoveredTokens is a refreshed token set whose database write failed.
// Replaying it keeps single-use refresh tokens from being lost.
type recoveredTokens struct {
	AccessToken          string     `json:"access_token"`
	AccessTokenExpiresAt *time.Time `json:"access_token_expires_at,omitempty"`
	RefreshToken         *string    `json:"refresh_token,omitempty"`
	ObtainedAt           time.Time  `json:"obtained_at"`
}

// GetValidAccessToken returns a usable access token for the user, refreshing
// and persisting it first when it is within the refresh buffer of expiry.
func (s *TokenService) GetValidAccessToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError) {
	cred, appErr := s.load(ctx, userID)
	if appErr != nil {
		return "", appErr
	}
	if !s.needsRefresh(cred) {
		return cred.AccessToken, nil
	}

	unlock, err := s.cache.Lock(ctx, constants.RefreshLockPrefix+userID.String(), s.opts.LockTTL)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.FromTransport("waiting for token refresh", ctx.Err())
		}
		// Losing the guard only reopens the last-write-wins race; keep serving.
		s.log.Warn("TokenService:GetValidAccessToken:Lock:Error", "user_id", userID, "error", err)
		unlock = func() {}
	}
	defer unlock()

	// Another request may have refreshed while we waited.
	cred, appErr = s.load(ctx, userID)
	if appErr != nil {
		return "", appErr
	}
	if !s.needsRefresh(cred) {
		s.log.Debug("TokenService:GetValidAccessToken:RefreshedConcurrently", "user_id", userID)
		return cred.AccessToken, nil
	}

	return s.refresh(ctx, cred)
}

// load reads the credential, replays any recovered token set, and checks the
// access token is present.
func (s *TokenService) load(ctx context.Context, userID uuid.UUID) (*entity.Credential, *errors.AppError) {
	cred, err := s.repo.GetByUserAndProvider(ctx, userID, s.opts.ProviderID)
	if err != nil {
		s.log.Error("TokenService:load:GetByUserAndProvider:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load credential", err)
	}
	if cred == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "no booking provider credential for user", nil)
	}

	s.replayRecovered(ctx, cred)

	if cred.AccessToken == "" {
		return nil, errors.NewAppError(errors.ErrInvalidState, "stored credential has no access token", nil)
	}
	return cred, nil
}

func (s *TokenService) needsRefresh(cred *entity.Credential) bool {
	if cred.AccessTokenExpiresAt == nil {
		return false
	}
	return cred.AccessTokenExpiresAt.Sub(s.now()) < constants.AccessTokenRefreshBuffer
}

func (s *TokenService) refresh(ctx context.Context, cred *entity.Credential) (string, *errors.AppError) {
	now := s.now()
	if !cred.HasRefreshToken() {
		return "", errors.NewAppError(errors.ErrInvalidState, "no refresh token", nil)
	}
	if cred.RefreshTokenExpiresAt != nil && cred.RefreshTokenExpiresAt.Before(now) {
		return "", errors.NewAppError(errors.ErrInvalidState, "refresh token expired", nil)
	}
	if s.opts.ClientID == "" || s.opts.ClientSecret == "" {
		return "", errors.NewAppError(errors.ErrConfig, "OAuth client credentials are not configured", nil)
	}

	s.log.Info("TokenService:refresh:Start", "user_id", cred.UserID, "provider_id", cred.ProviderID)
	set, appErr := s.exchanger.Exchange(ctx, RefreshRequest{
		ClientID:     s.opts.ClientID,
		ClientSecret: s.opts.ClientSecret,
		RefreshToken: *cred.RefreshToken,
	})
	if appErr != nil {
		s.log.Error("TokenService:refresh:Exchange:Error", "user_id", cred.UserID, "code", appErr.Code, "error", appErr)
		return "", appErr
	}

	obtainedAt := s.now()
	cred.AccessToken = set.AccessToken
	cred.AccessTokenExpiresAt = nil
	if set.ExpiresIn != nil {
		exp := obtainedAt.Add(time.Duration(*set.ExpiresIn) * time.Second)
		cred.AccessTokenExpiresAt = &exp
	}
	if set.RefreshToken != nil && *set.RefreshToken != "" {
		cred.RefreshToken = set.RefreshToken
	}

	// The exchange already happened upstream; finish the write even if the caller left.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.repo.UpdateTokens(persistCtx, cred); err != nil {
		s.log.Error("TokenService:refresh:UpdateTokens:Error", "error", err, "user_id", cred.UserID)
		if stashErr := s.stash(persistCtx, cred, obtainedAt); stashErr != nil {
			s.log.Error("TokenService:refresh:Stash:Error", "error", stashErr, "user_id", cred.UserID)
			return "", errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed credential", err)
		}
		s.log.Warn("TokenService:refresh:Stashed", "user_id", cred.UserID)
		return cred.AccessToken, nil
	}

	s.log.Info("TokenService:refresh:Success", "user_id", cred.UserID, "expires_at", cred.AccessTokenExpiresAt)
	return cred.AccessToken, nil
}

func (s *TokenService) stash(ctx context.Context, cred *entity.Credential, obtainedAt time.Time) error {
	access, err := s.sealer.Seal(cred.AccessToken)
	if err != nil {
		return err
	}
	rec := recoveredTokens{
		AccessToken:          access,
		AccessTokenExpiresAt: cred.AccessTokenExpiresAt,
		ObtainedAt:           obtainedAt,
	}
	if cred.RefreshToken != nil {
		refresh, err := s.sealer.Seal(*cred.RefreshToken)
		if err != nil {
			return err
		}
		rec.RefreshToken = &refresh
	}
	return s.cache.SetJSON(ctx, s.recoveryKey(cred.UserID), rec, s.opts.RecoveryTTL)
}

// replayRecovered applies a stashed token set newer than the stored row and
// tries to persist it. Failures are logged; the in-memory credential still
// carries the recovered tokens.
func (s *TokenService) replayRecovered(ctx context.Context, cred *entity.Credential) {
	key := s.recoveryKey(cred.UserID)
	var rec recoveredTokens
	found, err := s.cache.GetJSON(ctx, key, &rec)
	if err != nil {
		s.log.Warn("TokenService:replayRecovered:Get:Error", "user_id", cred.UserID, "error", err)
		return
	}
	if !found {
		return
	}
	if !rec.ObtainedAt.After(cred.UpdatedAt) {
		// The row was rewritten after the stash, e.g. by a fresh OAuth grant.
		_ = s.cache.Delete(ctx, key)
		return
	}

	access, err := s.sealer.Open(rec.AccessToken)
	if err != nil {
		s.log.Error("TokenService:replayRecovered:Unseal:Error", "user_id", cred.UserID, "error", err)
		return
	}
	cred.AccessToken = access
	cred.AccessTokenExpiresAt = rec.AccessTokenExpiresAt
	if rec.RefreshToken != nil {
		refresh, err := s.sealer.Open(*rec.RefreshToken)
		if err != nil {
			s.log.Error("TokenService:replayRecovered:Unseal:Error", "user_id", cred.UserID, "error", err)
			return
		}
		cred.RefreshToken = &refresh
	}

	if err := s.repo.UpdateTokens(ctx, cred); err != nil {
		s.log.Warn("TokenService:replayRecovered:UpdateTokens:Error", "user_id", cred.UserID, "error", err)
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil && !stderrors.Is(err, context.Canceled) {
		s.log.Warn("TokenService:replayRecovered:Delete:Error", "user_id", cred.UserID, "error", err)
	}
	s.log.Info("TokenService:replayRecovered:Persisted", "user_id", cred.UserID)
}

func (s *TokenService) recoveryKey(userID uuid.UUID) string {
	return constants.RecoveredTokenPrefix + userID.String()
}
