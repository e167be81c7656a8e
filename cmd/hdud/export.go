package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func NewExportCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id> [dir]",
		Short: "Export version history to a git repository",
		Long: `Write every version as one commit of content.md in a git repository at <dir>.
Without <dir> the archive lives under .hdud/archive/<kind>/<id> of the current scope.
Running it again only adds versions that are not exported yet.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: makeExportRunner(svc),
	}

	cmd.Flags().Bool("list", false, "List already exported versions instead of exporting")
	return cmd
}

func makeExportRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetBool("list")

		ref, err := docRef(cmd, args[0])
		if err != nil {
			return err
		}
		dir := archiveDir(ref, args[1:])

		if list {
			return listArchive(cmd, dir)
		}

		s, err := svc(cmd)
		if err != nil {
			return err
		}

		result, err := s.Export(cmd.Context(), ref, dir)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if wantJSON(cmd) {
			return writeJSON(cmd, map[string]any{
				"dir":     dir,
				"added":   result.Added,
				"skipped": result.Skipped,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d versions to %s (%d already present)\n",
			len(result.Added), dir, len(result.Skipped))
		return nil
	}
}

func archiveDir(ref internal.DocumentRef, rest []string) string {
	if len(rest) > 0 && rest[0] != "" {
		return rest[0]
	}
	return internal.NewScopeResolver().Resolve("").ArchivePath(ref)
}

func listArchive(cmd *cobra.Command, dir string) error {
	var entries []internal.ArchiveEntry
	if _, err := os.Stat(dir); err == nil {
		entries, err = internal.ArchiveLog(dir)
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if wantJSON(cmd) {
		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			out = append(out, map[string]any{
				"version": e.Version,
				"source":  e.Source,
				"hash":    e.Hash,
				"author":  e.Author,
				"date":    formatTime(e.When),
			})
		}
		return writeJSON(cmd, out)
	}

	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No versions exported to %s\n", dir)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "version %d  %s  %s  %s\n",
			e.Version, shortHash(e.Hash), e.When.Format("2006-01-02 15:04"), e.Source)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
