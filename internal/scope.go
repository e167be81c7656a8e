package internal

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	DirName = ".hdud"

	// EnvHome replaces the home directory used for the global scope.
	EnvHome = "HDUD_HOME"
)

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

type Scope struct {
	Type    ScopeType
	Path    string // directory holding .hdud
	DirPath string // .hdud directory path
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.DirPath, "config.yaml")
}

// ArchivePath is the default export location for a document's history.
func (s Scope) ArchivePath(ref DocumentRef) string {
	return filepath.Join(s.DirPath, "archive", ref.Kind.collection(), strconv.FormatInt(ref.ID, 10))
}

// ScopeResolver finds the .hdud directory that applies to a working directory.
type ScopeResolver struct {
	homeDir string
	workDir string
}

func NewScopeResolver() *ScopeResolver {
	home := os.Getenv(EnvHome)
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return &ScopeResolver{homeDir: home}
}

// NewScopeResolverAt resolves relative to workDir instead of the process cwd.
func NewScopeResolverAt(homeDir, workDir string) *ScopeResolver {
	return &ScopeResolver{homeDir: homeDir, workDir: workDir}
}

func (r *ScopeResolver) Global() Scope {
	return Scope{
		Type:    ScopeGlobal,
		Path:    r.homeDir,
		DirPath: filepath.Join(r.homeDir, DirName),
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	start := r.workDir
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Scope{}, false
		}
		start = cwd
	}
	return r.findProjectScope(start)
}

// findProjectScope walks up from dir. The home directory's .hdud is the
// global scope, so the walk never reports it as a project.
func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		if dir == r.homeDir {
			return Scope{}, false
		}
		dirPath := filepath.Join(dir, DirName)
		if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
			return Scope{Type: ScopeProject, Path: dir, DirPath: dirPath}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve returns the global scope when asked for explicitly, otherwise the
// nearest project scope, falling back to global.
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if ScopeType(explicit) == ScopeGlobal {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}
