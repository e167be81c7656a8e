package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type RenderOptions struct {
	Color bool

	// Inline marks the changed characters of a removed/added pair that share
	// a line index.
	Inline bool
}

type diffStyles struct {
	added   lipgloss.Style
	removed lipgloss.Style
	equal   lipgloss.Style
	addHi   lipgloss.Style
	delHi   lipgloss.Style
}

func newDiffStyles(w io.Writer) diffStyles {
	r := lipgloss.NewRenderer(w)
	return diffStyles{
		added:   r.NewStyle().Foreground(lipgloss.Color("2")),
		removed: r.NewStyle().Foreground(lipgloss.Color("1")),
		equal:   r.NewStyle().Faint(true),
		addHi:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true).Reverse(true),
		delHi:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Reverse(true),
	}
}

// RenderDiff writes rows as "+ ", "- " and "  " prefixed lines.
func RenderDiff(w io.Writer, rows DiffResult, opts RenderOptions) error {
	styles := newDiffStyles(w)

	for i := 0; i < len(rows); i++ {
		row := rows[i]

		if opts.Inline && row.Kind == DiffRemoved && i+1 < len(rows) {
			next := rows[i+1]
			if next.Kind == DiffAdded && next.Index == row.Index {
				del, ins := inlineSegments(row.Line, next.Line, styles, opts.Color)
				if _, err := fmt.Fprintf(w, "%s\n%s\n", del, ins); err != nil {
					return err
				}
				i++
				continue
			}
		}

		if _, err := fmt.Fprintln(w, renderRow(row, styles, opts.Color)); err != nil {
			return err
		}
	}
	return nil
}

func renderRow(row DiffRow, s diffStyles, color bool) string {
	var prefix string
	var style lipgloss.Style
	switch row.Kind {
	case DiffAdded:
		prefix, style = "+ ", s.added
	case DiffRemoved:
		prefix, style = "- ", s.removed
	default:
		prefix, style = "  ", s.equal
	}
	if !color {
		return prefix + row.Line
	}
	return style.Render(prefix + row.Line)
}

func inlineSegments(oldLine, newLine string, s diffStyles, color bool) (string, string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldLine, newLine, false))

	var del, ins strings.Builder
	del.WriteString(paint("- ", s.removed, color))
	ins.WriteString(paint("+ ", s.added, color))

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			del.WriteString(paint(d.Text, s.removed, color))
			ins.WriteString(paint(d.Text, s.added, color))
		case diffmatchpatch.DiffDelete:
			if color {
				del.WriteString(s.delHi.Render(d.Text))
			} else {
				del.WriteString("[-" + d.Text + "-]")
			}
		case diffmatchpatch.DiffInsert:
			if color {
				ins.WriteString(s.addHi.Render(d.Text))
			} else {
				ins.WriteString("{+" + d.Text + "+}")
			}
		}
	}
	return del.String(), ins.String()
}

func paint(text string, style lipgloss.Style, color bool) string {
	if !color {
		return text
	}
	return style.Render(text)
}

// RenderStat writes a one-line summary such as "2 added, 1 removed".
func RenderStat(w io.Writer, rows DiffResult) error {
	added, removed := DiffStat(rows)
	_, err := fmt.Fprintf(w, "%d added, %d removed\n", added, removed)
	return err
}
