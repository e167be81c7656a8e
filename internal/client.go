package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout            = 15 * time.Second
	DefaultBreakerMaxFailures = 5
	DefaultBreakerOpenTimeout = 30 * time.Second

	maxResponseBytes = 8 << 20
)

type HistoryFetcher interface {
	FetchHistory(ctx context.Context, ref DocumentRef) (*VersionHistory, error)
}

type DocumentFetcher interface {
	FetchDocument(ctx context.Context, ref DocumentRef) (*Document, error)
}

type DocumentSaver interface {
	SaveDocument(ctx context.Context, ref DocumentRef, payload SavePayload) (*Document, error)
}

type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     oauth2.TokenSource
	Logger     *zap.Logger
	UserAgent  string

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// APIClient talks to the HDUD backend. One canonical path per operation.
type APIClient struct {
	baseURL   string
	http      *http.Client
	tokens    oauth2.TokenSource
	logger    *zap.Logger
	userAgent string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
}

var (
	_ HistoryFetcher  = (*APIClient)(nil)
	_ DocumentFetcher = (*APIClient)(nil)
	_ DocumentSaver   = (*APIClient)(nil)
)

var errServerStatus = errors.New("server error status")

func NewAPIClient(cfg ClientConfig) (*APIClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hdud"
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = DefaultBreakerMaxFailures
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = DefaultBreakerOpenTimeout
	}

	c := &APIClient{
		baseURL:   base,
		http:      httpClient,
		tokens:    cfg.Tokens,
		logger:    logger,
		userAgent: cfg.UserAgent,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	maxFailures := cfg.BreakerMaxFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "hdud-api",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c, nil
}

func documentPath(ref DocumentRef) string {
	return fmt.Sprintf("/%s/%d", ref.Kind.collection(), ref.ID)
}

func historyPath(ref DocumentRef) string {
	if ref.Kind == KindChapter {
		return documentPath(ref)
	}
	return documentPath(ref) + "/versions"
}

func (c *APIClient) FetchHistory(ctx context.Context, ref DocumentRef) (*VersionHistory, error) {
	body, err := c.do(ctx, "fetch history", http.MethodGet, historyPath(ref), nil)
	if err != nil {
		return nil, err
	}

	hist, err := decodeHistory(ref, body)
	if err != nil {
		return nil, c.decodeError("fetch history", http.MethodGet, historyPath(ref), err)
	}
	return hist, nil
}

func (c *APIClient) FetchDocument(ctx context.Context, ref DocumentRef) (*Document, error) {
	body, err := c.do(ctx, "fetch document", http.MethodGet, documentPath(ref), nil)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(ref, body)
	if err != nil {
		return nil, c.decodeError("fetch document", http.MethodGet, documentPath(ref), err)
	}
	return doc, nil
}

func (c *APIClient) SaveDocument(ctx context.Context, ref DocumentRef, payload SavePayload) (*Document, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	body, err := c.do(ctx, "save document", http.MethodPut, documentPath(ref), data)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(ref, body)
	if err != nil {
		return nil, c.decodeError("save document", http.MethodPut, documentPath(ref), err)
	}
	return doc, nil
}

func (c *APIClient) decodeError(op, method, path string, err error) error {
	return &APIError{Op: op, Method: method, Path: path, Status: http.StatusOK, Message: "invalid response body", Err: err}
}

type rawResponse struct {
	status int
	body   []byte
}

func (c *APIClient) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	fail := func(status int, msg string, err error) *APIError {
		return &APIError{Op: op, Method: method, Path: path, Status: status, Message: msg, Err: err}
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fail(0, "no auth token", fmt.Errorf("%w: %w", ErrNoToken, err))
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, fail(0, "no auth token", ErrNoToken)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fail(0, err.Error(), err)
		}
	}

	requestID := uuid.NewString()
	log := c.logger.With(
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fail(0, "create request", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		raw := &rawResponse{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return raw, errServerStatus
		}
		return raw, nil
	})

	raw, _ := out.(*rawResponse)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		log.Warn("backend call rejected by breaker", zap.Error(err))
		return nil, fail(0, "backend unavailable", err)
	case err != nil && raw == nil:
		log.Warn("backend call failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fail(0, err.Error(), err)
	}

	log.Debug("backend call finished", zap.Int("status", raw.status), zap.Duration("elapsed", time.Since(start)))

	if raw.status < 200 || raw.status > 299 {
		apiErr := fail(raw.status, errorMessage(raw.status, raw.body), nil)
		apiErr.RouteNotFound = raw.status == http.StatusNotFound && isRouteNotFound(raw.body)
		log.Warn("backend returned error", zap.Int("status", raw.status), zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	return raw.body, nil
}

// isRouteNotFound matches the plain-text 404 the server emits for unknown routes.
func isRouteNotFound(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return false
	}
	return bytes.Contains(bytes.ToLower(trimmed), []byte("not found"))
}
