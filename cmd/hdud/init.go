package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config",
		Long:  `Create a .hdud directory with a default config.yaml in the current directory or your home.`,
		RunE:  runInit,
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.hdud)")
	cmd.Flags().String("api-url", "", "Backend base URL to store in the config")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	isGlobal, _ := cmd.Flags().GetBool("global")
	apiURL, _ := cmd.Flags().GetString("api-url")

	resolver := internal.NewScopeResolver()

	var scope internal.Scope
	if isGlobal {
		scope = resolver.Global()
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		scope = internal.Scope{
			Type:    internal.ScopeProject,
			Path:    cwd,
			DirPath: filepath.Join(cwd, internal.DirName),
		}
	}

	if _, err := os.Stat(scope.ConfigPath()); err == nil {
		return fmt.Errorf("already initialized at %s", scope.DirPath)
	}

	cfg := internal.DefaultConfig()
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := internal.SaveConfig(scope, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized hdud config at %s\n", scope.ConfigPath())
	return nil
}
