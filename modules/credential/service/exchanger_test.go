package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"booking-insights/core/config"
	"booking-insights/core/errors"
	"booking-insights/core/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refreshReq = RefreshRequest{ClientID: "client", ClientSecret: "secret", RefreshToken: "refresh-1"}

func calcomConfig(url, encoding string, bearer bool) config.CalComConfig {
	return config.CalComConfig{
		TokenURL:        url,
		RefreshEncoding: encoding,
		RefreshBearer:   bearer,
		RequestTimeout:  2 * time.Second,
	}
}

func TestJSONExchanger_SendsGrantAndParsesResponse(t *testing.T) {
	var got map[string]string
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		authHeader = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","expires_in":1800,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	ex := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingJSON, true), nil, logger.Nop())
	set, appErr := ex.Exchange(context.Background(), refreshReq)

	require.Nil(t, appErr)
	assert.Equal(t, "refresh_token", got["grant_type"])
	assert.Equal(t, "client", got["client_id"])
	assert.Equal(t, "secret", got["client_secret"])
	assert.Equal(t, "refresh-1", got["refresh_token"])
	assert.Equal(t, "Bearer refresh-1", authHeader)

	assert.Equal(t, "new-access", set.AccessToken)
	assert.Equal(t, "new-refresh", *set.RefreshToken)
	assert.Equal(t, int64(1800), *set.ExpiresIn)
	assert.Equal(t, "Bearer", *set.TokenType)
}

func TestJSONExchanger_NoBearerByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"access_token":"a"}`))
	}))
	defer srv.Close()

	set, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingJSON, false), nil, logger.Nop()).
		Exchange(context.Background(), refreshReq)

	require.Nil(t, appErr)
	assert.Nil(t, set.RefreshToken)
	assert.Nil(t, set.ExpiresIn)
}

func TestJSONExchanger_NonSuccessIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	_, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingJSON, false), nil, logger.Nop()).
		Exchange(context.Background(), refreshReq)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstream, appErr.Code)
	details := appErr.Details.(errors.UpstreamDetails)
	assert.Equal(t, http.StatusBadRequest, details.Status)
	assert.Equal(t, `{"error":"invalid_grant"}`, details.Body)
}

func TestJSONExchanger_SchemaViolationIsUpstreamError(t *testing.T) {
	for name, body := range map[string]string{
		"missing access token": `{"refresh_token":"r"}`,
		"wrong type":           `{"access_token":"a","expires_in":"soon"}`,
		"not json":             `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingJSON, false), nil, logger.Nop()).
				Exchange(context.Background(), refreshReq)

			require.NotNil(t, appErr)
			assert.Equal(t, errors.ErrUpstream, appErr.Code)
			assert.Equal(t, http.StatusOK, appErr.Details.(errors.UpstreamDetails).Status)
		})
	}
}

func TestJSONExchanger_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := calcomConfig(srv.URL, config.RefreshEncodingJSON, false)
	cfg.RequestTimeout = 50 * time.Millisecond
	_, appErr := NewExchanger(cfg, nil, logger.Nop()).Exchange(context.Background(), refreshReq)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrTimeout, appErr.Code)
}

func TestFormExchanger_SendsClientCredentialsInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	set, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingForm, false), nil, logger.Nop()).
		Exchange(context.Background(), refreshReq)

	require.Nil(t, appErr)
	assert.Equal(t, "new-access", set.AccessToken)
	assert.Equal(t, "new-refresh", *set.RefreshToken)
	require.NotNil(t, set.ExpiresIn)
	assert.InDelta(t, 3600, *set.ExpiresIn, 2)
}

func TestFormExchanger_RetainedRefreshTokenIsNotReportedAsNew(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access"}`))
	}))
	defer srv.Close()

	set, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingForm, false), nil, logger.Nop()).
		Exchange(context.Background(), refreshReq)

	require.Nil(t, appErr)
	assert.Nil(t, set.RefreshToken)
	assert.Nil(t, set.ExpiresIn)
}

func TestFormExchanger_NonSuccessIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	_, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingForm, false), nil, logger.Nop()).
		Exchange(context.Background(), refreshReq)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrUpstream, appErr.Code)
	details := appErr.Details.(errors.UpstreamDetails)
	assert.Equal(t, http.StatusUnauthorized, details.Status)
	assert.Contains(t, details.Body, "invalid_client")
}

func TestFormExchanger_InvalidSuccessBodyIsUpstreamError(t *testing.T) {
	bodies := []string{
		`{"token_type":"bearer"}`,
		`{"access_token":123}`,
		`{"access_token":"a","expires_in":"soon"}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))

		_, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingForm, false), nil, logger.Nop()).
			Exchange(context.Background(), refreshReq)
		srv.Close()

		require.NotNil(t, appErr, body)
		assert.Equal(t, errors.ErrUpstream, appErr.Code, body)
		details, ok := appErr.Details.(errors.UpstreamDetails)
		require.True(t, ok, body)
		assert.Equal(t, http.StatusOK, details.Status, body)
		assert.Equal(t, body, details.Body)
	}
}

func TestFormExchanger_BearerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","expires_in":60}`))
	}))
	defer srv.Close()

	set, appErr := NewExchanger(calcomConfig(srv.URL, config.RefreshEncodingForm, true), nil, logger.Nop()).
		Exchange(context.Background(), refreshReq)

	require.Nil(t, appErr)
	assert.Equal(t, "new-access", set.AccessToken)
}
