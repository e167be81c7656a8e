package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd(version, newApp(version).service)

	if name, ok := externalFor(rootCmd, os.Args[1:]); ok {
		if err := executeExternal(ctx, name, os.Args[2:], version); err != nil {
			fmt.Fprintf(os.Stderr, "hdud %s: %v\n", name, err)
			stop()
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(ctx, rootCmd); err != nil {
		stop()
		os.Exit(1)
	}
}

// externalFor reports whether args name an hdud-* executable. Built-in
// subcommands always win over an external with the same name.
func externalFor(root *cobra.Command, args []string) (string, bool) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "", false
	}
	name := args[0]
	if found, _, err := root.Find([]string{name}); err == nil && found != root {
		return "", false
	}
	if _, err := findExternal(name); err != nil {
		return "", false
	}
	return name, true
}
