package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewWhoamiCmd(svc serviceFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the author id carried by the auth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := svc(cmd)
			if err != nil {
				return err
			}
			id, err := s.Session().CurrentAuthorID()
			if err != nil {
				return err
			}

			if wantJSON(cmd) {
				return writeJSON(cmd, map[string]any{"author_id": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}
