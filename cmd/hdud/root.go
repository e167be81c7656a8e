package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string, svc serviceFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hdud",
		Short:         "Version history for HDUD memories and chapters",
		Long:          `Browse, compare and restore versions of memories and chapters stored in HDUD.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	setHelpWithExternals(rootCmd)

	if svc != nil {
		addSubcommands(rootCmd, svc)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("kind", "memory", "Document kind (memory|chapter)")
	cmd.PersistentFlags().String("config", "", "Config file (default: .hdud/config.yaml)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging to stderr")
}

func addSubcommands(root *cobra.Command, svc serviceFunc) {
	root.AddCommand(
		NewInitCmd(),
		NewShowCmd(svc),
		NewLogCmd(svc),
		NewDiffCmd(svc),
		NewEditCmd(svc),
		NewRestoreCmd(svc),
		NewExportCmd(svc),
		NewWatchCmd(svc),
		NewWhoamiCmd(svc),
	)
}

func setHelpWithExternals(cmd *cobra.Command) {
	defaultHelp := cmd.HelpFunc()

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		printExternalCommands(c)
	})
}

func printExternalCommands(cmd *cobra.Command) {
	externals := listExternalCommands()
	if len(externals) == 0 {
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nExternal commands (hdud-*):")
	for _, name := range externals {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
}
