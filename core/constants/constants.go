package constants

import "time"

const (
	ContextTokenData = "token_data"
	ContextRequestID = "request_id"

	HeaderRequestID = "X-Request-ID"

	ProviderCalCom = "calcom"

	// AccessTokenRefreshBuffer is how close to expiry an access token may get before it is refreshed.
	AccessTokenRefreshBuffer = 5 * time.Minute

	DefaultTopUpdatedTake = 5

	// MaxTake is the upstream page size limit; BookingQuery's validate tag must match it.
	MaxTake = 500

	// Cache key prefixes.
	RefreshLockPrefix    = "credential:refresh-lock:"
	RecoveredTokenPrefix = "credential:recovered:"
)
