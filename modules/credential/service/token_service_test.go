package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"booking-insights/core/cache"
	"booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/modules/credential/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	creds     map[uuid.UUID]entity.Credential
	updates   int
	failWrite error
}

func newFakeRepo(creds ...entity.Credential) *fakeRepo {
	r := &fakeRepo{creds: map[uuid.UUID]entity.Credential{}}
	for _, c := range creds {
		r.creds[c.UserID] = c
	}
	return r
}

func (r *fakeRepo) GetByUserAndProvider(_ context.Context, userID uuid.UUID, _ string) (*entity.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeRepo) UpdateTokens(_ context.Context, cred *entity.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.updates++
	cred.UpdatedAt = time.Now()
	r.creds[cred.UserID] = *cred
	return nil
}

func (r *fakeRepo) Create(_ context.Context, cred *entity.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[cred.UserID] = *cred
	return nil
}

func (r *fakeRepo) get(userID uuid.UUID) entity.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creds[userID]
}

type fakeExchanger struct {
	calls int32
	delay time.Duration
	set   *entity.TokenSet
	err   *errors.AppError
	last  RefreshRequest
}

func (f *fakeExchanger) Exchange(_ context.Context, req RefreshRequest) (*entity.TokenSet, *errors.AppError) {
	atomic.AddInt32(&f.calls, 1)
	f.last = req
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	set := *f.set
	return &set, nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newService(repo *fakeRepo, ex Exchanger) *TokenService {
	svc := NewTokenService(repo, ex, cache.NewMemory(), nil, Options{
		ProviderID:   "calcom",
		ClientID:     "client",
		ClientSecret: "secret",
	}, logger.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func credential(userID uuid.UUID, accessExpiresIn time.Duration) entity.Credential {
	return entity.Credential{
		UserID:               userID,
		ProviderID:           "calcom",
		AccessToken:          "old-access",
		AccessTokenExpiresAt: ptr(fixedNow.Add(accessExpiresIn)),
		RefreshToken:         ptr("old-refresh"),
	}
}

func refreshedSet() *entity.TokenSet {
	return &entity.TokenSet{AccessToken: "new-access", RefreshToken: ptr("new-refresh"), ExpiresIn: ptr(int64(3600))}
}

func TestGetValidAccessToken_FreshTokenReturnedUnchanged(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo(credential(userID, 10*time.Minute))
	ex := &fakeExchanger{set: refreshedSet()}

	token, appErr := newService(repo, ex).GetValidAccessToken(context.Background(), userID)

	require.Nil(t, appErr)
	assert.Equal(t, "old-access", token)
	assert.Zero(t, atomic.LoadInt32(&ex.calls))
	assert.Zero(t, repo.updates)
}

func TestGetValidAccessToken_RefreshesWithinBuffer(t *testing.T) {
	for name, until := range map[string]time.Duration{
		"within five minutes": 4 * time.Minute,
		"already expired":     -time.Hour,
	} {
		t.Run(name, func(t *testing.T) {
			userID := uuid.New()
			repo := newFakeRepo(credential(userID, until))
			ex := &fakeExchanger{set: refreshedSet()}

			token, appErr := newService(repo, ex).GetValidAccessToken(context.Background(), userID)

			require.Nil(t, appErr)
			assert.Equal(t, "new-access", token)
			assert.Equal(t, int32(1), atomic.LoadInt32(&ex.calls))
			assert.Equal(t, "old-refresh", ex.last.RefreshToken)

			stored := repo.get(userID)
			assert.Equal(t, "new-access", stored.AccessToken)
			assert.Equal(t, "new-refresh", *stored.RefreshToken)
			require.NotNil(t, stored.AccessTokenExpiresAt)
			assert.Equal(t, fixedNow.Add(time.Hour), *stored.AccessTokenExpiresAt)
		})
	}
}

func TestGetValidAccessToken_NilExpiryNeverRefreshes(t *testing.T) {
	userID := uuid.New()
	cred := credential(userID, 0)
	cred.AccessTokenExpiresAt = nil
	ex := &fakeExchanger{set: refreshedSet()}

	token, appErr := newService(newFakeRepo(cred), ex).GetValidAccessToken(context.Background(), userID)

	require.Nil(t, appErr)
	assert.Equal(t, "old-access", token)
	assert.Zero(t, atomic.LoadInt32(&ex.calls))
}

func TestGetValidAccessToken_KeepsRefreshTokenWhenNoneReturned(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo(credential(userID, -time.Minute))
	ex := &fakeExchanger{set: &entity.TokenSet{AccessToken: "new-access"}}

	_, appErr := newService(repo, ex).GetValidAccessToken(context.Background(), userID)

	require.Nil(t, appErr)
	stored := repo.get(userID)
	assert.Equal(t, "old-refresh", *stored.RefreshToken)
	assert.Nil(t, stored.AccessTokenExpiresAt)
}

func TestGetValidAccessToken_Failures(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name  string
		cred  func() *entity.Credential
		opts  func(*TokenService)
		code  errors.ErrorCode
		calls int32
	}{
		{
			name: "no credential",
			cred: func() *entity.Credential { return nil },
			code: errors.ErrNotFound,
		},
		{
			name: "empty access token",
			cred: func() *entity.Credential {
				c := credential(userID, time.Hour)
				c.AccessToken = ""
				return &c
			},
			code: errors.ErrInvalidState,
		},
		{
			name: "no refresh token",
			cred: func() *entity.Credential {
				c := credential(userID, -time.Minute)
				c.RefreshToken = nil
				return &c
			},
			code: errors.ErrInvalidState,
		},
		{
			name: "refresh token expired",
			cred: func() *entity.Credential {
				c := credential(userID, -time.Minute)
				c.RefreshTokenExpiresAt = ptr(fixedNow.Add(-time.Second))
				return &c
			},
			code: errors.ErrInvalidState,
		},
		{
			name: "client credentials missing",
			cred: func() *entity.Credential {
				c := credential(userID, -time.Minute)
				return &c
			},
			opts: func(s *TokenService) { s.opts.ClientSecret = "" },
			code: errors.ErrConfig,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			if c := tc.cred(); c != nil {
				repo = newFakeRepo(*c)
			}
			ex := &fakeExchanger{set: refreshedSet()}
			svc := newService(repo, ex)
			if tc.opts != nil {
				tc.opts(svc)
			}

			token, appErr := svc.GetValidAccessToken(context.Background(), userID)

			require.NotNil(t, appErr)
			assert.Empty(t, token)
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.calls, atomic.LoadInt32(&ex.calls))
			assert.Zero(t, repo.updates)
		})
	}
}

func TestGetValidAccessToken_RefreshTokenExpiredMessage(t *testing.T) {
	userID := uuid.New()
	c := credential(userID, -time.Minute)
	c.RefreshTokenExpiresAt = ptr(fixedNow.Add(-time.Hour))

	_, appErr := newService(newFakeRepo(c), &fakeExchanger{}).GetValidAccessToken(context.Background(), userID)

	require.NotNil(t, appErr)
	assert.Equal(t, "refresh token expired", appErr.Message)
}

func TestGetValidAccessToken_UpstreamErrorPropagates(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo(credential(userID, -time.Minute))
	ex := &fakeExchanger{err: errors.NewUpstreamError("token refresh failed", 400, `{"error":"invalid_grant"}`)}

	_, appErr := newService(repo, ex).GetValidAccessToken(context.Background(), userID)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstream, appErr.Code)
	details, ok := appErr.Details.(errors.UpstreamDetails)
	require.True(t, ok)
	assert.Equal(t, 400, details.Status)
	assert.Equal(t, "old-access", repo.get(userID).AccessToken)
}

func TestGetValidAccessToken_ConcurrentCallersRefreshOnce(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo(credential(userID, -time.Minute))
	ex := &fakeExchanger{set: refreshedSet(), delay: 20 * time.Millisecond}
	svc := newService(repo, ex)

	var wg sync.WaitGroup
	tokens := make([]string, 6)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, appErr := svc.GetValidAccessToken(context.Background(), userID)
			assert.Nil(t, appErr)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ex.calls))
	for _, token := range tokens {
		assert.Equal(t, "new-access", token)
	}
}

func TestGetValidAccessToken_PersistFailureIsRecovered(t *testing.T) {
	userID := uuid.New()
	repo := newFakeRepo(credential(userID, -time.Minute))
	repo.failWrite = assert.AnError
	ex := &fakeExchanger{set: refreshedSet()}
	svc := newService(repo, ex)

	token, appErr := svc.GetValidAccessToken(context.Background(), userID)
	require.Nil(t, appErr)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, "old-refresh", *repo.get(userID).RefreshToken)

	// Database is back: the next call replays the stash instead of exchanging
	// the now-consumed refresh token again.
	repo.mu.Lock()
	repo.failWrite = nil
	repo.mu.Unlock()

	token, appErr = svc.GetValidAccessToken(context.Background(), userID)
	require.Nil(t, appErr)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ex.calls))

	stored := repo.get(userID)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", *stored.RefreshToken)

	var rec recoveredTokens
	found, err := svc.cache.GetJSON(context.Background(), svc.recoveryKey(userID), &rec)
	require.NoError(t, err)
	assert.False(t, found)
}
