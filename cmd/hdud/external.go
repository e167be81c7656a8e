package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
)

// Executables named hdud-<name> on PATH run as "hdud <name>".
const externalPrefix = "hdud-"

func findExternal(name string) (string, error) {
	path, err := exec.LookPath(externalPrefix + name)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s%s not found in PATH", name, externalPrefix, name)
	}
	return path, nil
}

func listExternalCommands() []string {
	seen := make(map[string]bool)
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if name, ok := externalName(dir, entry); ok {
				seen[name] = true
			}
		}
	}

	commands := make([]string, 0, len(seen))
	for name := range seen {
		commands = append(commands, name)
	}
	sort.Strings(commands)
	return commands
}

func externalName(dir string, entry os.DirEntry) (string, bool) {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, externalPrefix) {
		return "", false
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.Mode()&0111 == 0 {
		return "", false
	}

	short := strings.TrimPrefix(name, externalPrefix)
	return short, short != ""
}

func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binaryPath, err := findExternal(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Env = externalEnv(version, internal.NewScopeResolver().Resolve(""))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// externalEnv hands plugins the resolved config location and API endpoint.
func externalEnv(version string, scope internal.Scope) []string {
	bin, _ := os.Executable()

	env := append(os.Environ(),
		"HDUD_VERSION="+version,
		"HDUD_BIN="+bin,
		"HDUD_CONFIG="+scope.ConfigPath(),
	)
	if os.Getenv(internal.EnvAPIURL) == "" {
		if cfg, err := internal.LoadConfig(scope); err == nil {
			env = append(env, internal.EnvAPIURL+"="+cfg.API.BaseURL)
		}
	}
	return env
}
