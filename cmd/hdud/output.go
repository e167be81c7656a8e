package main

import (
	"encoding/json"
	"time"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
	"github.com/spf13/cobra"
)

func wantJSON(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func documentJSON(doc *internal.Document) map[string]any {
	return map[string]any{
		"kind":            doc.Ref.Kind,
		"id":              doc.Ref.ID,
		"author_id":       doc.AuthorID,
		"title":           doc.Title,
		"content":         doc.Content,
		"version_number":  doc.VersionNumber,
		"current_version": doc.CurrentVersion,
		"is_deleted":      doc.IsDeleted,
		"can_edit":        doc.CanEdit,
		"created_at":      formatTime(doc.CreatedAt),
	}
}

func versionJSON(v internal.Version, current int) map[string]any {
	return map[string]any{
		"version_number": v.Number,
		"title":          v.Title,
		"content":        v.Content,
		"created_at":     formatTime(v.CreatedAt),
		"created_by":     v.CreatedBy,
		"current":        v.Number == current,
	}
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func titleOrUntitled(title *string) string {
	if title == nil || *title == "" {
		return "(untitled)"
	}
	return *title
}
