package orchestrator

import (
	"io/fs"
	"path"
	"strings"
)

// DefaultMaxFileSize is the ceiling above which files are skipped unread.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// skipDirs are directory names never descended into during root expansion.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".cache":       true,
	".idea":        true,
	".vscode":      true,
}

// skipExtensions are file suffixes skipped before any content read. These
// cover binaries, lockfiles, and generated artifacts.
var skipExtensions = []string{
	".min.js", ".map", ".lock",
	".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".woff", ".woff2", ".ttf",
	".zip", ".gz", ".tar", ".pdf",
	".exe", ".dll", ".so", ".dylib", ".a", ".o", ".wasm",
	".pyc", ".class", ".jar",
}

// SkipReason classifies why a candidate was excluded before parsing.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipDirectory
	SkipExtension
	SkipSize
	SkipPattern
)

// FileFilter applies include/exclude globs, the directory skip list, an
// extension skip list, and a size ceiling to candidate paths.
type FileFilter struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// NewFileFilter creates a FileFilter with the default size ceiling.
func NewFileFilter(include, exclude []string) *FileFilter {
	return &FileFilter{
		Include:     include,
		Exclude:     exclude,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// SkipDir reports whether a directory name should never be descended into.
func (f *FileFilter) SkipDir(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".")
}

// Check classifies a candidate file by its slash-separated relative path and
// stat info. It runs before any content is read.
func (f *FileFilter) Check(rel string, info fs.FileInfo) SkipReason {
	lower := strings.ToLower(rel)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return SkipExtension
		}
	}
	if max := f.maxSize(); info != nil && info.Size() > max {
		return SkipSize
	}
	if !f.matchPatterns(rel) {
		return SkipPattern
	}
	return SkipNone
}

func (f *FileFilter) maxSize() int64 {
	if f.MaxFileSize > 0 {
		return f.MaxFileSize
	}
	return DefaultMaxFileSize
}

// matchPatterns applies exclude globs first, then include globs. An empty
// include list admits everything not excluded. Globs match against the full
// relative path and against the base name, so "*.py" works without "**".
func (f *FileFilter) matchPatterns(rel string) bool {
	base := path.Base(rel)
	for _, pat := range f.Exclude {
		if globMatch(pat, rel, base) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pat := range f.Include {
		if globMatch(pat, rel, base) {
			return true
		}
	}
	return false
}

func globMatch(pattern, rel, base string) bool {
	if ok, err := path.Match(pattern, rel); err == nil && ok {
		return true
	}
	if ok, err := path.Match(pattern, base); err == nil && ok {
		return true
	}
	// "dir/..." style prefix patterns.
	if prefix, found := strings.CutSuffix(pattern, "/..."); found {
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}
	return false
}
