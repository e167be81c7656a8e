package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewShowCmd(svc serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a memory or chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := docRef(cmd, args[0])
			if err != nil {
				return err
			}
			s, err := svc(cmd)
			if err != nil {
				return err
			}

			doc, err := s.Show(cmd.Context(), ref)
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return writeJSON(cmd, documentJSON(doc))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  version %d\n", doc.Ref, doc.CurrentVersion)
			fmt.Fprintf(out, "Title:    %s\n", titleOrUntitled(doc.Title))
			fmt.Fprintf(out, "Author:   %d\n", doc.AuthorID)
			fmt.Fprintf(out, "Editable: %t\n", doc.CanEdit)
			if doc.IsDeleted {
				fmt.Fprintln(out, "Deleted:  true")
			}
			fmt.Fprintf(out, "\n%s\n", doc.Content)
			return nil
		},
	}
}
