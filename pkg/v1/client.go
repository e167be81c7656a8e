package v1

import (
	"context"
	"fmt"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
)

// Client provides programmatic access to HDUD version history.
type Client struct {
	svc  *internal.DocumentService
	kind internal.DocumentKind
}

// New creates a new Client with the given options. Settings not given as
// options come from the resolved config file and HDUD_* environment variables.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	kind, err := internal.ParseKind(cfg.kind)
	if err != nil {
		return nil, err
	}

	fileCfg, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}

	clientCfg := fileCfg.ClientConfig()
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}
	if cfg.timeout > 0 {
		clientCfg.Timeout = cfg.timeout
	}
	switch {
	case cfg.tokens != nil:
		clientCfg.Tokens = cfg.tokens
	case cfg.token != "":
		clientCfg.Tokens = internal.StaticTokenSource(cfg.token)
	}
	clientCfg.HTTPClient = cfg.httpClient
	clientCfg.Logger = cfg.logger

	api, err := internal.NewAPIClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Client{
		svc:  internal.NewDocumentService(api, internal.NewSession(clientCfg.Tokens), cfg.logger),
		kind: kind,
	}, nil
}

func loadConfig(cfg *clientConfig) (*internal.Config, error) {
	if cfg.configFile != "" {
		return internal.LoadConfigFile(cfg.configFile)
	}
	if cfg.baseURL != "" {
		// explicit endpoint; skip config discovery
		c := internal.DefaultConfig()
		c.ApplyEnv()
		return c, nil
	}
	return internal.LoadConfig(internal.NewScopeResolver().Resolve(""))
}

func (c *Client) ref(id int64) (internal.DocumentRef, error) {
	return internal.NewDocumentRef(c.kind, id)
}

// Get fetches a document; CanEdit is resolved for the token's author.
func (c *Client) Get(ctx context.Context, id int64) (*Document, error) {
	ref, err := c.ref(id)
	if err != nil {
		return nil, err
	}
	doc, err := c.svc.Show(ctx, ref)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc), nil
}

func (c *Client) History(ctx context.Context, id int64) (*History, error) {
	ref, err := c.ref(id)
	if err != nil {
		return nil, err
	}
	store, err := c.svc.History(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	snap := store.Snapshot()
	out := &History{Versions: make([]Version, 0, len(snap.Versions)), Current: snap.Current()}
	for _, v := range snap.Versions {
		out.Versions = append(out.Versions, fromVersion(v))
	}
	return out, nil
}

// Diff compares versions a and b by line position. With withContext set,
// unchanged non-blank lines are included.
func (c *Client) Diff(ctx context.Context, id int64, a, b int, withContext bool) ([]DiffLine, error) {
	ref, err := c.ref(id)
	if err != nil {
		return nil, err
	}
	out, err := c.svc.Diff(ctx, ref, internal.DiffRequest{A: a, B: b}, internal.DiffOptions{Context: withContext})
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	lines := make([]DiffLine, 0, len(out.Rows))
	for _, row := range out.Rows {
		lines = append(lines, DiffLine{Kind: string(row.Kind), Line: row.Line, Index: row.Index})
	}
	return lines, nil
}

// Save stores content as a new version. A nil title keeps the current one;
// a blank title clears it.
func (c *Client) Save(ctx context.Context, id int64, title *string, content string) (*Document, error) {
	ref, err := c.ref(id)
	if err != nil {
		return nil, err
	}
	doc, err := c.svc.Edit(ctx, ref, internal.EditInput{Title: title, Content: content})
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return fromDocument(doc), nil
}

// Restore saves an older version's title and content as a new version.
func (c *Client) Restore(ctx context.Context, id int64, version int) (*Document, error) {
	ref, err := c.ref(id)
	if err != nil {
		return nil, err
	}
	doc, err := c.svc.Restore(ctx, ref, version)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return fromDocument(doc), nil
}

// Export mirrors the version history into a git repository at dir.
func (c *Client) Export(ctx context.Context, id int64, dir string) (*ExportResult, error) {
	ref, err := c.ref(id)
	if err != nil {
		return nil, err
	}
	result, err := c.svc.Export(ctx, ref, dir)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return &ExportResult{Added: result.Added, Skipped: result.Skipped}, nil
}

// AuthorID returns the author id carried by the current token.
func (c *Client) AuthorID() (int64, error) {
	return c.svc.Session().CurrentAuthorID()
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}
