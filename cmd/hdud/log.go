package main

import (
	"fmt"
	"strings"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func NewLogCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Show version history",
		Long:  `List the versions of a memory or chapter, newest first.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeLogRunner(svc),
	}

	cmd.Flags().IntP("number", "n", 10, "Limit number of versions (0 for all)")
	cmd.Flags().Bool("oneline", false, "Show each version on one line")
	return cmd
}

func makeLogRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("number")
		oneline, _ := cmd.Flags().GetBool("oneline")

		ref, err := docRef(cmd, args[0])
		if err != nil {
			return err
		}
		s, err := svc(cmd)
		if err != nil {
			return err
		}

		store, err := s.History(cmd.Context(), ref)
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}

		versions := newestFirst(store.List(), limit)
		current := store.Current()

		if wantJSON(cmd) {
			out := make([]map[string]any, 0, len(versions))
			for _, v := range versions {
				out = append(out, versionJSON(v, current))
			}
			return writeJSON(cmd, out)
		}

		for _, v := range versions {
			marker := " "
			if v.Number == current {
				marker = "*"
			}
			if oneline {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s\n", marker, v.Number, titleOrUntitled(v.Title))
				continue
			}

			fmt.Fprintf(cmd.OutOrStdout(), "version %d", v.Number)
			if v.Number == current {
				fmt.Fprint(cmd.OutOrStdout(), " (current)")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if !v.CreatedAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Date:   %s\n", v.CreatedAt.Format("Mon Jan 2 15:04:05 2006 -0700"))
			}
			if v.CreatedBy != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Author: %d\n", *v.CreatedBy)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n    %s\n\n", titleOrUntitled(v.Title))
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n\n", preview(v.Content, 72))
		}
		return nil
	}
}

func newestFirst(versions []internal.Version, limit int) []internal.Version {
	out := make([]internal.Version, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, versions[i])
	}
	return out
}

// preview returns the first line of content, cut to width runes.
func preview(content string, width int) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i]) + " ..."
	}
	runes := []rune(line)
	if len(runes) > width {
		return string(runes[:width]) + "..."
	}
	return line
}
