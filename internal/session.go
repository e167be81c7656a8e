package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// StaticTokenSource returns a source that always yields token as a bearer token.
func StaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: strings.TrimSpace(token),
		TokenType:   "Bearer",
	})
}

// EnvTokenSource reads the token from an environment variable on every call,
// falling back to a fixed value.
type EnvTokenSource struct {
	Env      string
	Fallback string
}

func (s EnvTokenSource) Token() (*oauth2.Token, error) {
	token := s.Fallback
	if s.Env != "" {
		if v := strings.TrimSpace(os.Getenv(s.Env)); v != "" {
			token = v
		}
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

var authorClaims = []string{"author_id", "authorId", "user_id", "userId", "sub"}

// Session exposes the signed-in author without leaking token internals.
// Tokens are decoded, not verified; the backend does verification.
type Session struct {
	tokens oauth2.TokenSource
	parser *jwt.Parser
}

func NewSession(tokens oauth2.TokenSource) *Session {
	return &Session{tokens: tokens, parser: jwt.NewParser()}
}

func (s *Session) CurrentAuthorID() (int64, error) {
	if s == nil || s.tokens == nil {
		return 0, ErrNoToken
	}
	tok, err := s.tokens.Token()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoToken, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return 0, ErrNoToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(tok.AccessToken, claims); err != nil {
		return 0, fmt.Errorf("decode token: %w", err)
	}

	for _, name := range authorClaims {
		if id, ok := claimInt(claims[name]); ok {
			return id, nil
		}
	}
	return 0, ErrNoAuthorClaim
}

// CanEdit prefers the backend's can_edit flag and falls back to ownership.
func (s *Session) CanEdit(doc *Document) bool {
	if doc == nil || doc.IsDeleted {
		return false
	}
	if doc.CanEditReported {
		return doc.CanEdit
	}
	author, err := s.CurrentAuthorID()
	if err != nil {
		return false
	}
	return author != 0 && author == doc.AuthorID
}

func claimInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n > 0
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil && id > 0
	case int64:
		return n, n > 0
	}
	return 0, false
}
