package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func NewEditCmd(svc serviceFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a memory or chapter in $EDITOR",
		Long:  `Open the current content in your editor. Saving creates a new version.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeEditRunner(svc),
	}

	cmd.Flags().StringP("title", "t", "", "Replace the title (empty clears it)")
	return cmd
}

func makeEditRunner(svc serviceFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ref, err := docRef(cmd, args[0])
		if err != nil {
			return err
		}
		s, err := svc(cmd)
		if err != nil {
			return err
		}

		existing, err := s.Show(cmd.Context(), ref)
		if err != nil {
			return err
		}
		if !existing.CanEdit {
			return fmt.Errorf("%s: %w", ref, internal.ErrEditNotAllowed)
		}

		content, err := editInEditor(existing.Content)
		if err != nil {
			return err
		}

		input := internal.EditInput{Content: content}
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			input.Title = &title
		}

		if input.Title == nil && content == existing.Content {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
			return nil
		}

		doc, err := s.Edit(cmd.Context(), ref, input)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s as version %d\n", ref, doc.VersionNumber)
		return nil
	}
}

func editInEditor(initial string) (string, error) {
	tmpFile, err := os.CreateTemp("", "hdud-edit-*.md")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(initial); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmpFile.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command(editor, tmpFile.Name())
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(content), nil
}
