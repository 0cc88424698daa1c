package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/common/logger"
)

// TokenSource returns the bearer token for outgoing calls, or "" when signed out
type TokenSource func(ctx context.Context) string

// GatewayClient performs JSON calls against one collaborator
type GatewayClient struct {
	baseURL string
	client  *http.Client
	token   TokenSource
	breaker *Breaker
}

func NewGatewayClient(baseURL string, timeout time.Duration, token TokenSource) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout, Transport: tracedTransport()},
		token:   token,
	}
}

// tracedTransport propagates the caller's trace context to collaborators
func tracedTransport() http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method + " " + r.URL.Path
		}),
	)
}

// WithBreaker routes calls through cb. A nil cb calls directly.
func (g *GatewayClient) WithBreaker(cb *Breaker) *GatewayClient {
	g.breaker = cb
	return g
}

// Do sends body as JSON and decodes a 2xx response into out.
// An empty response body leaves out untouched and reports decoded=false.
// Non-2xx responses become server errors carrying the body's message, or fallback.
func (g *GatewayClient) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}, fallback string) (decoded bool, err error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return false, apperrors.New(apperrors.KindValidation, http.StatusBadRequest, fallback, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return false, apperrors.Transport(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "unknown" {
		req.Header.Set("X-Request-ID", id)
	}
	if g.token != nil {
		if tok := g.token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := g.send(req)
	if err != nil {
		logger.Warn(ctx, "collaborator unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return false, apperrors.Transport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, apperrors.Transport(err)
	}

	logger.Debug(ctx, "collaborator call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, apperrors.Server(resp.StatusCode, ErrorMessage(data), fallback)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, apperrors.New(apperrors.KindServer, resp.StatusCode, fallback, fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return true, nil
}

func (g *GatewayClient) send(req *http.Request) (*http.Response, error) {
	if g.breaker == nil {
		return g.client.Do(req)
	}
	return g.breaker.Execute(func() (*http.Response, error) {
		return g.client.Do(req)
	})
}

// ErrorMessage extracts the human-readable message from an error body
func ErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// decodeList accepts a bare JSON array or an object wrapping it under one of keys
func decodeList(data json.RawMessage, out interface{}, keys ...string) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	for _, k := range keys {
		if inner, ok := wrapper[k]; ok {
			return json.Unmarshal(inner, out)
		}
	}
	return fmt.Errorf("response has none of %v", keys)
}

// getList fetches path and decodes a possibly wrapped array into out
func (g *GatewayClient) getList(ctx context.Context, path string, out interface{}, fallback string, keys ...string) error {
	var raw json.RawMessage
	if _, err := g.Do(ctx, http.MethodGet, path, nil, nil, &raw, fallback); err != nil {
		return err
	}
	if err := decodeList(raw, out, keys...); err != nil {
		return apperrors.New(apperrors.KindServer, http.StatusOK, fallback, err)
	}
	return nil
}
