package main

import (
	"fmt"
	"time"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func NewWatchCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <id> <file>",
		Short: "Save a local file as new versions while it changes",
		Long:  `Watch a local draft file and save its content as a new version after each burst of writes.`,
		Args:  cobra.ExactArgs(2),
		RunE:  makeWatchRunner(svc),
	}

	cmd.Flags().Duration("debounce", internal.DefaultDebounce, "Debounce window for batching writes")
	return cmd
}

func makeWatchRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")

		ref, err := docRef(cmd, args[0])
		if err != nil {
			return err
		}
		s, err := svc(cmd)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for %s...\n", args[1], ref)

		return s.Watch(cmd.Context(), ref, args[1], debounce, func(doc *internal.Document, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "save failed: %v\n", err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] saved version %d\n", time.Now().Format("15:04:05"), doc.VersionNumber)
		})
	}
}
