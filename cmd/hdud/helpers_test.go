package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

type fakeVersion struct {
	Number  int     `json:"version_number"`
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

// fakeHDUD serves one memory with id 1 owned by author 7.
type fakeHDUD struct {
	mu       sync.Mutex
	versions []fakeVersion
	puts     [][]byte
}

func newFakeHDUD(contents ...string) *fakeHDUD {
	f := &fakeHDUD{}
	for i, c := range contents {
		title := "Draft " + strconv.Itoa(i+1)
		f.versions = append(f.versions, fakeVersion{Number: i + 1, Title: &title, Content: c})
	}
	return f
}

func (f *fakeHDUD) detailLocked() map[string]any {
	latest := f.versions[len(f.versions)-1]
	return map[string]any{
		"memory_id":      1,
		"author_id":      7,
		"title":          latest.Title,
		"content":        latest.Content,
		"version_number": latest.Number,
		"is_deleted":     false,
	}
}

func (f *fakeHDUD) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/memories/1", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		respond(w, f.detailLocked())
	})
	r.Get("/memories/1/versions", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		respond(w, map[string]any{"versions": f.versions})
	})
	r.Put("/memories/1", func(w http.ResponseWriter, req *http.Request) {
		var payload struct {
			Title   *string `json:"title"`
			Content string  `json:"content"`
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(req.Body)
		if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
			http.Error(w, `{"error": "bad payload"}`, http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.puts = append(f.puts, buf.Bytes())
		f.versions = append(f.versions, fakeVersion{
			Number:  len(f.versions) + 1,
			Title:   payload.Title,
			Content: payload.Content,
		})
		respond(w, f.detailLocked())
	})
	return r
}

func (f *fakeHDUD) putBodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.puts))
	for _, p := range f.puts {
		out = append(out, string(p))
	}
	return out
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func authorToken(t *testing.T, authorID int64) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"author_id": authorID}).
		SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func setupCmdTest(t *testing.T, authorID int64, contents ...string) (*fakeHDUD, serviceFunc) {
	t.Helper()
	fake := newFakeHDUD(contents...)
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)

	tokens := internal.StaticTokenSource(authorToken(t, authorID))
	client, err := internal.NewAPIClient(internal.ClientConfig{BaseURL: srv.URL, Tokens: tokens})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	svc := internal.NewDocumentService(client, internal.NewSession(tokens), nil)

	return fake, func(*cobra.Command) (*internal.DocumentService, error) { return svc, nil }
}

func runCmd(t *testing.T, svc serviceFunc, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", svc)
	root.SetArgs(args)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	return out.String(), err
}
