package main

import (
	"fmt"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

// serviceFunc builds the document service for a command invocation, after
// flags have been parsed.
type serviceFunc func(cmd *cobra.Command) (*internal.DocumentService, error)

type app struct {
	version  string
	resolver *internal.ScopeResolver
}

func newApp(version string) *app {
	return &app{version: version, resolver: internal.NewScopeResolver()}
}

func (a *app) config(cmd *cobra.Command) (*internal.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return internal.LoadConfigFile(path)
	}
	return internal.LoadConfig(a.resolver.Resolve(""))
}

func (a *app) service(cmd *cobra.Command) (*internal.DocumentService, error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := internal.NewLogger(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	clientCfg := cfg.ClientConfig()
	clientCfg.Logger = logger
	clientCfg.UserAgent = "hdud/" + a.version

	client, err := internal.NewAPIClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return internal.NewDocumentService(client, internal.NewSession(clientCfg.Tokens), logger), nil
}

func docRef(cmd *cobra.Command, arg string) (internal.DocumentRef, error) {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := internal.ParseKind(kindFlag)
	if err != nil {
		return internal.DocumentRef{}, err
	}
	return internal.ParseDocumentRef(kind, arg)
}
