package service

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"booking-insights/core/config"
	"booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/modules/credential/entity"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/oauth2"
)

const maxTokenResponseBytes = 1 << 20

// RefreshRequest carries what a refresh_token grant needs.
type RefreshRequest struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Exchanger performs one refresh_token grant against the token endpoint.
type Exchanger interface {
	Exchange(ctx context.Context, req RefreshRequest) (*entity.TokenSet, *errors.AppError)
}

// NewExchanger picks the body encoding configured for the provider.
func NewExchanger(cfg config.CalComConfig, httpClient *http.Client, log *logger.Logger) Exchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	if cfg.RefreshEncoding == config.RefreshEncodingForm {
		return &FormExchanger{
			TokenURL:     cfg.TokenURL,
			HTTPClient:   httpClient,
			BearerHeader: cfg.RefreshBearer,
			log:          logger.OrDefault(log),
		}
	}
	return &JSONExchanger{
		TokenURL:     cfg.TokenURL,
		HTTPClient:   httpClient,
		BearerHeader: cfg.RefreshBearer,
		log:          logger.OrDefault(log),
	}
}

// FormExchanger posts an application/x-www-form-urlencoded grant with the
// client credentials in the body, optionally repeating the refresh token as a
// bearer credential.
type FormExchanger struct {
	TokenURL     string
	HTTPClient   *http.Client
	BearerHeader bool
	log          *logger.Logger
}

// tokenRecorder keeps the raw token endpoint response so it can be schema
// checked and reported; oauth2 only exposes it for non-2xx answers.
type tokenRecorder struct {
	base   http.RoundTripper
	bearer string
	status int
	body   []byte
	header http.Header
}

func (r *tokenRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if r.bearer != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	r.status, r.body, r.header = resp.StatusCode, body, resp.Header
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// recordedJSON reports whether a response arrived and holds a JSON document.
func (r *tokenRecorder) recordedJSON() bool {
	if r.status == 0 {
		return false
	}
	ct := r.header.Get("Content-Type")
	return ct == "" || strings.Contains(ct, "json")
}

func (e *FormExchanger) Exchange(ctx context.Context, req RefreshRequest) (*entity.TokenSet, *errors.AppError) {
	conf := &oauth2.Config{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	rec := &tokenRecorder{base: e.HTTPClient.Transport}
	if rec.base == nil {
		rec.base = http.DefaultTransport
	}
	if e.BearerHeader {
		rec.bearer = req.RefreshToken
	}
	client := &http.Client{Transport: rec, Timeout: e.HTTPClient.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: req.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if stderrors.As(err, &re) && re.Response != nil && (re.Response.StatusCode < 200 || re.Response.StatusCode > 299) {
			e.log.Error("FormExchanger:Exchange:APIError", "status", re.Response.StatusCode, "body", string(re.Body))
			return nil, errors.NewUpstreamError("token refresh failed", re.Response.StatusCode, string(re.Body))
		}
		if rec.status != 0 {
			// A 2xx answer oauth2 could not accept.
			e.log.Error("FormExchanger:Exchange:InvalidBody", "status", rec.status, "error", err)
			return nil, errors.NewUpstreamError("token refresh returned an unexpected body", rec.status, string(rec.body))
		}
		e.log.Error("FormExchanger:Exchange:Error", "error", err)
		return nil, errors.FromTransport("token refresh failed", err)
	}

	if rec.recordedJSON() {
		if problems := validateTokenResponse(rec.body); len(problems) > 0 {
			e.log.Error("FormExchanger:Exchange:Schema:Error", "status", rec.status, "problems", problems)
			return nil, errors.NewUpstreamError("token refresh returned an unexpected body", rec.status, string(rec.body)).
				WithDetails(errors.UpstreamDetails{Status: rec.status, Body: string(rec.body), Problems: problems})
		}
	}

	set := &entity.TokenSet{AccessToken: tok.AccessToken}
	// The oauth2 package echoes the request's refresh token when the response has none.
	if tok.RefreshToken != "" && tok.RefreshToken != req.RefreshToken {
		rt := tok.RefreshToken
		set.RefreshToken = &rt
	}
	if !tok.Expiry.IsZero() {
		secs := int64(math.Round(time.Until(tok.Expiry).Seconds()))
		set.ExpiresIn = &secs
	}
	if tok.TokenType != "" {
		tt := tok.TokenType
		set.TokenType = &tt
	}
	return set, nil
}

// JSONExchanger posts the grant as a JSON document, optionally repeating the
// refresh token as a bearer credential.
type JSONExchanger struct {
	TokenURL     string
	HTTPClient   *http.Client
	BearerHeader bool
	log          *logger.Logger
}

var tokenResponseSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["access_token"],
	"properties": {
		"access_token":  {"type": "string", "minLength": 1},
		"refresh_token": {"type": "string"},
		"expires_in":    {"type": "number"},
		"token_type":    {"type": "string"}
	}
}`)

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken *string  `json:"refresh_token"`
	ExpiresIn    *float64 `json:"expires_in"`
	TokenType    *string  `json:"token_type"`
}

func (e *JSONExchanger) Exchange(ctx context.Context, req RefreshRequest) (*entity.TokenSet, *errors.AppError) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     req.ClientID,
		"client_secret": req.ClientSecret,
		"refresh_token": req.RefreshToken,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode refresh request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.TokenURL, bytes.NewReader(payload))
	if err != nil {
		e.log.Error("JSONExchanger:Exchange:NewRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrConfig, "invalid token endpoint", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if e.BearerHeader {
		httpReq.Header.Set("Authorization", "Bearer "+req.RefreshToken)
	}

	resp, err := e.HTTPClient.Do(httpReq)
	if err != nil {
		e.log.Error("JSONExchanger:Exchange:DoRequest:Error", "error", err)
		return nil, errors.FromTransport("token refresh failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		e.log.Error("JSONExchanger:Exchange:ReadBody:Error", "error", err)
		return nil, errors.FromTransport("token refresh failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.log.Error("JSONExchanger:Exchange:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewUpstreamError("token refresh failed", resp.StatusCode, string(body))
	}

	if problems := validateTokenResponse(body); len(problems) > 0 {
		e.log.Error("JSONExchanger:Exchange:Schema:Error", "status", resp.StatusCode, "problems", problems)
		return nil, errors.NewUpstreamError("token refresh returned an unexpected body", resp.StatusCode, string(body)).
			WithDetails(errors.UpstreamDetails{Status: resp.StatusCode, Body: string(body), Problems: problems})
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewUpstreamError("token refresh returned an unexpected body", resp.StatusCode, string(body))
	}

	set := &entity.TokenSet{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		TokenType:    parsed.TokenType,
	}
	if parsed.ExpiresIn != nil {
		secs := int64(*parsed.ExpiresIn)
		set.ExpiresIn = &secs
	}
	return set, nil
}

func validateTokenResponse(body []byte) []string {
	result, err := gojsonschema.Validate(tokenResponseSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, re.String())
	}
	return problems
}
