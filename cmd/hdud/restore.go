package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewRestoreCmd(svc serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id> <version>",
		Short: "Restore an older version",
		Long: `Save an older version's title and content as a new version.
History is kept; nothing is deleted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := docRef(cmd, args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid version %q", args[1])
			}
			s, err := svc(cmd)
			if err != nil {
				return err
			}

			doc, err := s.Restore(cmd.Context(), ref, number)
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return writeJSON(cmd, documentJSON(doc))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s version %d as version %d\n", ref, number, doc.VersionNumber)
			return nil
		},
	}
}
