package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func TestFindExternal(t *testing.T) {
	tmp := t.TempDir()
	script := filepath.Join(tmp, "hdud-publish")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho ok"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", tmp+string(os.PathListSeparator)+os.Getenv("PATH"))

	path, err := findExternal("publish")
	if err != nil {
		t.Fatalf("expected to find hdud-publish, got error: %v", err)
	}
	if path != script {
		t.Errorf("expected %s, got %s", script, path)
	}
}

func TestFindExternalNotFound(t *testing.T) {
	if _, err := findExternal("nonexistent-command-12345"); err == nil {
		t.Fatal("expected error for nonexistent command")
	}
}

func TestListExternalCommands(t *testing.T) {
	tmp := t.TempDir()

	for _, name := range []string{"hdud-foo", "hdud-bar"} {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte("#!/bin/sh"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// not executable
	if err := os.WriteFile(filepath.Join(tmp, "hdud-notes"), []byte("text"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "other-script"), []byte("#!/bin/sh"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", tmp)

	cmds := listExternalCommands()
	if strings.Join(cmds, ",") != "bar,foo" {
		t.Errorf("external commands = %v, want [bar foo]", cmds)
	}
}

func TestExternalEnv(t *testing.T) {
	tmp := t.TempDir()
	scope := internal.Scope{Type: internal.ScopeProject, Path: tmp, DirPath: filepath.Join(tmp, ".hdud")}
	cfg := internal.DefaultConfig()
	cfg.API.BaseURL = "https://hdud.example.com/api"
	if err := internal.SaveConfig(scope, cfg); err != nil {
		t.Fatal(err)
	}
	t.Setenv(internal.EnvAPIURL, "")

	env := strings.Join(externalEnv("1.2.3", scope), "\n")

	for _, want := range []string{
		"HDUD_VERSION=1.2.3",
		"HDUD_CONFIG=" + scope.ConfigPath(),
		"HDUD_API_URL=https://hdud.example.com/api",
	} {
		if !strings.Contains(env, want) {
			t.Errorf("expected env to contain %q", want)
		}
	}
}

func TestExternalForPrefersBuiltins(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"hdud-show", "hdud-publish"} {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte("#!/bin/sh"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", tmp)

	root := NewRootCmd("test", func(*cobra.Command) (*internal.DocumentService, error) {
		return nil, nil
	})

	tests := []struct {
		args []string
		want string
		ok   bool
	}{
		{args: []string{"publish", "1"}, want: "publish", ok: true},
		{args: []string{"show", "1"}},
		{args: []string{"--json"}},
		{args: []string{"missing"}},
		{args: nil},
	}
	for _, tt := range tests {
		name, ok := externalFor(root, tt.args)
		if ok != tt.ok || name != tt.want {
			t.Errorf("externalFor(%v) = %q, %v; want %q, %v", tt.args, name, ok, tt.want, tt.ok)
		}
	}
}
