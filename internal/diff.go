package internal

import "strings"

type DiffKind string

const (
	DiffEqual   DiffKind = "equal"
	DiffAdded   DiffKind = "added"
	DiffRemoved DiffKind = "removed"
)

// DiffRow is one output line. Index is the line position both sides were read from.
type DiffRow struct {
	Kind  DiffKind `json:"kind"`
	Line  string   `json:"line"`
	Index int      `json:"index"`
}

type DiffResult []DiffRow

type DiffOptions struct {
	// Context also emits identical non-blank lines as equal rows.
	Context bool
}

// DiffLines compares a and b line by line and returns only the changes.
func DiffLines(a, b string) DiffResult {
	return Diff(a, b, DiffOptions{})
}

// Diff compares a and b by line position, not by content alignment. A line
// inserted near the top shows every following line as removed and re-added.
// Blank lines never produce rows.
func Diff(a, b string, opts DiffOptions) DiffResult {
	left := strings.Split(a, "\n")
	right := strings.Split(b, "\n")

	n := len(left)
	if len(right) > n {
		n = len(right)
	}

	rows := DiffResult{}
	for i := 0; i < n; i++ {
		l := lineAt(left, i)
		r := lineAt(right, i)

		if l == r {
			if opts.Context && !isBlank(l) {
				rows = append(rows, DiffRow{Kind: DiffEqual, Line: l, Index: i})
			}
			continue
		}
		if !isBlank(l) {
			rows = append(rows, DiffRow{Kind: DiffRemoved, Line: l, Index: i})
		}
		if !isBlank(r) {
			rows = append(rows, DiffRow{Kind: DiffAdded, Line: r, Index: i})
		}
	}
	return rows
}

func DiffVersions(a, b Version, opts DiffOptions) DiffResult {
	return Diff(a.Content, b.Content, opts)
}

// Changed reports whether the result holds any added or removed rows.
func (d DiffResult) Changed() bool {
	for _, row := range d {
		if row.Kind != DiffEqual {
			return true
		}
	}
	return false
}

func DiffStat(rows DiffResult) (added, removed int) {
	for _, row := range rows {
		switch row.Kind {
		case DiffAdded:
			added++
		case DiffRemoved:
			removed++
		}
	}
	return added, removed
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
