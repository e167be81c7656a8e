package main

import (
	"fmt"
	"strconv"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func NewDiffCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <id> <a> <b>",
		Short: "Compare two versions line by line",
		Long: `Compare two versions of a memory or chapter by line position.
Lines are compared index by index, so an inserted line shifts every line below it.`,
		Args: cobra.ExactArgs(3),
		RunE: makeDiffRunner(svc),
	}

	cmd.Flags().Bool("context", false, "Also show unchanged lines")
	cmd.Flags().Bool("inline", false, "Highlight changed characters within a line")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("stat", false, "Only show added/removed counts")
	return cmd
}

func makeDiffRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		withContext, _ := cmd.Flags().GetBool("context")
		inline, _ := cmd.Flags().GetBool("inline")
		noColor, _ := cmd.Flags().GetBool("no-color")
		stat, _ := cmd.Flags().GetBool("stat")

		ref, err := docRef(cmd, args[0])
		if err != nil {
			return err
		}
		req, err := parseDiffRequest(args[1], args[2])
		if err != nil {
			return err
		}
		s, err := svc(cmd)
		if err != nil {
			return err
		}

		out, err := s.Diff(cmd.Context(), ref, req, internal.DiffOptions{Context: withContext})
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		if wantJSON(cmd) {
			added, removed := internal.DiffStat(out.Rows)
			return writeJSON(cmd, map[string]any{
				"a":       out.A.Number,
				"b":       out.B.Number,
				"added":   added,
				"removed": removed,
				"rows":    out.Rows,
			})
		}

		if stat {
			return internal.RenderStat(cmd.OutOrStdout(), out.Rows)
		}
		if !out.Rows.Changed() {
			fmt.Fprintln(cmd.OutOrStdout(), "No differences.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "version %d -> version %d\n", out.A.Number, out.B.Number)
		return internal.RenderDiff(cmd.OutOrStdout(), out.Rows, internal.RenderOptions{
			Color:  !noColor,
			Inline: inline,
		})
	}
}

func parseDiffRequest(a, b string) (internal.DiffRequest, error) {
	va, err := strconv.Atoi(a)
	if err != nil || va <= 0 {
		return internal.DiffRequest{}, fmt.Errorf("invalid version %q", a)
	}
	vb, err := strconv.Atoi(b)
	if err != nil || vb <= 0 {
		return internal.DiffRequest{}, fmt.Errorf("invalid version %q", b)
	}
	return internal.DiffRequest{A: va, B: vb}, nil
}
