package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"booking-insights/core/config"
	"booking-insights/core/errors"
	"booking-insights/core/logger"

	"github.com/xeipuuv/gojsonschema"
)

const maxBookingsResponseBytes = 8 << 20

// Client reads bookings from the Cal.com v2 API on behalf of a user.
type Client struct {
	baseURL          string
	apiVersion       string
	apiVersionHeader string
	httpClient       *http.Client
	schema           *gojsonschema.Schema
	log              *logger.Logger
}

func NewClient(cfg config.CalComConfig, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(bookingsEnvelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile bookings schema: %w", err)
	}
	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion:       cfg.APIVersion,
		apiVersionHeader: cfg.APIVersionHeader,
		httpClient:       httpClient,
		schema:           schema,
		log:              logger.OrDefault(log),
	}, nil
}

// ListBookings fetches GET {base}/bookings{queryString} and returns the body
// once it satisfies the bookings envelope schema.
func (c *Client) ListBookings(ctx context.Context, accessToken, queryString string) ([]byte, *errors.AppError) {
	endpoint := c.baseURL + "/bookings" + queryString
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Error("CalComClient:ListBookings:NewRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrConfig, "invalid booking API URL", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if c.apiVersionHeader != "" && c.apiVersion != "" {
		req.Header.Set(c.apiVersionHeader, c.apiVersion)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("CalComClient:ListBookings:DoRequest:Error", "error", err)
		return nil, errors.FromTransport("booking fetch failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBookingsResponseBytes))
	if err != nil {
		c.log.Error("CalComClient:ListBookings:ReadBody:Error", "error", err)
		return nil, errors.FromTransport("booking fetch failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("CalComClient:ListBookings:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewUpstreamError("booking fetch failed", resp.StatusCode, string(body))
	}

	if problems := c.validate(body); len(problems) > 0 {
		c.log.Error("CalComClient:ListBookings:Schema:Error", "status", resp.StatusCode, "problems", problems)
		return nil, errors.NewUpstreamError("booking API returned an unexpected body", resp.StatusCode, string(body)).
			WithDetails(errors.UpstreamDetails{Status: resp.StatusCode, Body: string(body), Problems: problems})
	}

	c.log.Debug("CalComClient:ListBookings:Success", "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

func (c *Client) validate(body []byte) []string {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
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
