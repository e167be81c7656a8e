package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	ArchiveFile   = "content.md"
	ArchiveBranch = "main"
	ArchiveAuthor = "hdud"
	ArchiveEmail  = "hdud@local"

	versionPrefix = "version "
	sourcePrefix  = "source: "
)

// ArchiveEntry is one exported version as recorded in the archive log.
type ArchiveEntry struct {
	Version int
	// Source is the document the version was exported from, e.g. "memory/1".
	Source  string
	Hash    string
	Message string
	Author  string
	When    time.Time
}

type ExportResult struct {
	Added   []int
	Skipped []int
}

// Archive mirrors a document's version history into a local git repository,
// one commit per version.
type Archive struct {
	repo     *git.Repository
	worktree *git.Worktree
	fs       billy.Filesystem
	dir      string
}

// OpenArchive opens the repository at dir, initializing it when absent.
func OpenArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	wt := osfs.New(dir)
	storage := filesystem.NewStorage(osfs.New(filepath.Join(dir, git.GitDirName)), cache.NewObjectLRUDefault())

	repo, err := git.Open(storage, wt)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = initArchive(storage, wt)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &Archive{repo: repo, worktree: worktree, fs: wt, dir: dir}, nil
}

func initArchive(storage *filesystem.Storage, wt billy.Filesystem) (*git.Repository, error) {
	repo, err := git.Init(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("init repository: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = ArchiveBranch
	if err := repo.SetConfig(cfg); err != nil {
		return nil, fmt.Errorf("set config: %w", err)
	}

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(ArchiveBranch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("set HEAD: %w", err)
	}
	return repo, nil
}

// Log returns exported versions, oldest first.
func (a *Archive) Log() ([]ArchiveEntry, error) {
	if _, err := a.repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get HEAD: %w", err)
	}

	iter, err := a.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var entries []ArchiveEntry
	err = iter.ForEach(func(c *object.Commit) error {
		n, ok := parseVersionMessage(c.Message)
		if !ok {
			return nil
		}
		entries = append(entries, ArchiveEntry{
			Version: n,
			Source:  parseSource(c.Message),
			Hash:    c.Hash.String(),
			Message: strings.TrimSpace(c.Message),
			Author:  c.Author.Name,
			When:    c.Author.When,
		})
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Version < entries[j].Version
	})
	return entries, nil
}

// Export commits every version not yet in the archive, in ascending order.
// An archive holds one document; exporting another one into it fails with
// ErrArchiveMismatch before anything is written.
func (a *Archive) Export(ctx context.Context, doc *Document, versions []Version) (ExportResult, error) {
	var result ExportResult
	if doc == nil {
		return result, fmt.Errorf("export: no document")
	}
	source := doc.Ref.String()

	existing, err := a.Log()
	if err != nil {
		return result, err
	}
	done := make(map[int]bool, len(existing))
	for _, e := range existing {
		if e.Source != source {
			return result, fmt.Errorf("%w: %s holds %s, not %s", ErrArchiveMismatch, a.dir, sourceOrUnknown(e.Source), source)
		}
		done[e.Version] = true
	}

	ordered := make([]Version, len(versions))
	copy(ordered, versions)
	sortVersions(ordered)

	for _, v := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if done[v.Number] {
			result.Skipped = append(result.Skipped, v.Number)
			continue
		}
		if err := a.commitVersion(doc, v); err != nil {
			return result, fmt.Errorf("export version %d: %w", v.Number, err)
		}
		done[v.Number] = true
		result.Added = append(result.Added, v.Number)
	}

	return result, nil
}

func (a *Archive) commitVersion(doc *Document, v Version) error {
	if err := util.WriteFile(a.fs, ArchiveFile, renderArchiveFile(v), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if _, err := a.worktree.Add(ArchiveFile); err != nil {
		return fmt.Errorf("stage file: %w", err)
	}

	_, err := a.worktree.Commit(versionMessage(doc, v), &git.CommitOptions{
		Author:            versionSignature(v),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func renderArchiveFile(v Version) []byte {
	var b strings.Builder
	if v.Title != nil && strings.TrimSpace(*v.Title) != "" {
		b.WriteString("# ")
		b.WriteString(strings.TrimSpace(*v.Title))
		b.WriteString("\n\n")
	}
	b.WriteString(v.Content)
	if !strings.HasSuffix(v.Content, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func versionMessage(doc *Document, v Version) string {
	title, _, _ := strings.Cut(v.TitleOrEmpty(), "\n")
	if strings.TrimSpace(title) == "" {
		title = "untitled"
	}
	return fmt.Sprintf("%s%d: %s\n\n%s%s", versionPrefix, v.Number, title, sourcePrefix, doc.Ref.String())
}

func versionSignature(v Version) *object.Signature {
	sig := &object.Signature{Name: ArchiveAuthor, Email: ArchiveEmail, When: v.CreatedAt}
	if v.CreatedBy != nil {
		sig.Name = fmt.Sprintf("author-%d", *v.CreatedBy)
		sig.Email = fmt.Sprintf("author-%d@hdud.local", *v.CreatedBy)
	}
	if sig.When.IsZero() {
		sig.When = time.Now()
	}
	return sig
}

func parseVersionMessage(msg string) (int, bool) {
	if !strings.HasPrefix(msg, versionPrefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(msg, versionPrefix)
	end := strings.IndexByte(rest, ':')
	if end <= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseSource(msg string) string {
	for _, line := range strings.Split(msg, "\n") {
		if strings.HasPrefix(line, sourcePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, sourcePrefix))
		}
	}
	return ""
}

func sourceOrUnknown(s string) string {
	if s == "" {
		return "an unknown document"
	}
	return s
}

func ExportHistory(ctx context.Context, dir string, doc *Document, versions []Version) (ExportResult, error) {
	archive, err := OpenArchive(dir)
	if err != nil {
		return ExportResult{}, err
	}
	return archive.Export(ctx, doc, versions)
}

func ArchiveLog(dir string) ([]ArchiveEntry, error) {
	archive, err := OpenArchive(dir)
	if err != nil {
		return nil, err
	}
	return archive.Log()
}
