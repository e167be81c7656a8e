package v1

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	configFile string
	baseURL    string
	token      string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	kind       string
}

// WithConfigFile loads settings from a config.yaml instead of the resolved scope.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) {
		c.configFile = path
	}
}

// WithBaseURL overrides the backend base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithToken uses a fixed bearer token.
func WithToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithTokenSource supplies tokens from an external auth collaborator.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *clientConfig) {
		c.tokens = ts
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithKind selects memories (default) or chapters.
func WithKind(kind string) Option {
	return func(c *clientConfig) {
		c.kind = kind
	}
}
