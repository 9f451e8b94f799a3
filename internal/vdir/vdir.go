// Package vdir implements the virtual-directory input abstraction from
// spec.md §6: a tagged union describing where a registry's source files
// live, plus a SourceResolver that turns one into a local filesystem root.
//
// Archive extraction and git clone behavior are explicitly delegated to
// external collaborators (spec.md §1, §6); the default resolver here only
// ever materializes LocalFolder directly. Remote/archive/git variants
// resolve through an injected SourceResolver, and the zero-value resolver
// reports them as unsupported rather than silently no-oping.
package vdir

import (
	"errors"
	"fmt"
)

// Kind tags which VirtualDirectoryPath variant is populated.
type Kind string

const (
	KindLocalFolder  Kind = "local_folder"
	KindLocalArchive Kind = "local_archive"
	KindRemoteArchive Kind = "remote_archive"
	KindGitRepo      Kind = "git_repo"
)

// Path is the tagged union {LocalFolder | LocalArchive | RemoteArchive | GitRepo}.
type Path struct {
	Kind Kind

	// LocalFolder / LocalArchive
	LocalPath string
	// LocalArchive / RemoteArchive / GitRepo
	SubFolder string
	// RemoteArchive / GitRepo
	URL string
	// GitRepo
	Tag string
}

// LocalFolder builds a Path pointing directly at a local directory.
func LocalFolder(path string) Path {
	return Path{Kind: KindLocalFolder, LocalPath: path}
}

// LocalArchive builds a Path pointing at a local archive file, with an
// optional sub-folder within the extracted contents.
func LocalArchive(path, subFolder string) Path {
	return Path{Kind: KindLocalArchive, LocalPath: path, SubFolder: subFolder}
}

// RemoteArchive builds a Path pointing at a remote archive URL.
func RemoteArchive(url, subFolder string) Path {
	return Path{Kind: KindRemoteArchive, URL: url, SubFolder: subFolder}
}

// GitRepo builds a Path pointing at a git repository, optionally pinned to
// a tag.
func GitRepo(url, subFolder, tag string) Path {
	return Path{Kind: KindGitRepo, URL: url, SubFolder: subFolder, Tag: tag}
}

// ErrDelegatedSource is returned by the default SourceResolver for any
// variant other than LocalFolder: those require an injected resolver that
// knows how to extract archives or shallow-clone git repositories.
var ErrDelegatedSource = errors.New("vdir: source kind requires an injected SourceResolver (archive/git extraction is an external collaborator)")

// SourceResolver resolves a virtual directory to a local filesystem path
// containing the registry's contents.
type SourceResolver interface {
	Resolve(p Path) (string, error)
}

// DefaultResolver handles LocalFolder directly and reports every other
// variant via ErrDelegatedSource.
type DefaultResolver struct{}

// Resolve implements SourceResolver.
func (DefaultResolver) Resolve(p Path) (string, error) {
	switch p.Kind {
	case KindLocalFolder:
		if p.LocalPath == "" {
			return "", fmt.Errorf("vdir: local folder path is empty")
		}
		return p.LocalPath, nil
	default:
		return "", fmt.Errorf("%w: kind=%s", ErrDelegatedSource, p.Kind)
	}
}

// ChainResolver tries each resolver in order, returning the first
// non-ErrDelegatedSource result. This lets a caller register a real archive/
// git resolver while still falling back to DefaultResolver for local paths.
type ChainResolver []SourceResolver

// Resolve implements SourceResolver.
func (c ChainResolver) Resolve(p Path) (string, error) {
	var lastErr error
	for _, r := range c {
		path, err := r.Resolve(p)
		if err == nil {
			return path, nil
		}
		lastErr = err
		if !errors.Is(err, ErrDelegatedSource) {
			return "", err
		}
	}
	if lastErr == nil {
		lastErr = ErrDelegatedSource
	}
	return "", lastErr
}
