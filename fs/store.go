package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/harvest"
)

// Ensure ArtifactStore implements harvest.ArtifactStore at compile time.
var _ harvest.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore implements harvest.ArtifactStore on the local filesystem.
// Primary artifacts are written to a temporary file and renamed into place,
// so a reader never sees a partially written artifact.
type ArtifactStore struct {
	root string
	raw  bool
}

// Option configures an ArtifactStore.
type Option func(*ArtifactStore)

// WithRawArtifacts enables writing the fetched HTML next to each artifact.
func WithRawArtifacts(enabled bool) Option {
	return func(s *ArtifactStore) {
		s.raw = enabled
	}
}

// NewArtifactStore creates a store rooted at root.
func NewArtifactStore(root string, opts ...Option) *ArtifactStore {
	s := &ArtifactStore{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the output root directory.
func (s *ArtifactStore) Root() string {
	return s.root
}

func (s *ArtifactStore) Lookup(ctx context.Context, dir, module string) (*harvest.ArtifactInfo, error) {
	primary, _, err := s.paths(dir, module)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(primary)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "artifact %s/%s not found", dir, module)
	} else if err != nil {
		return nil, harvest.Errorf(harvest.EPERSIST, "stat %s: %v", primary, err)
	}
	if fi.IsDir() {
		return nil, harvest.Errorf(harvest.EPERSIST, "%s is a directory", primary)
	}

	data, err := os.ReadFile(primary)
	if err != nil {
		return nil, harvest.Errorf(harvest.EPERSIST, "read %s: %v", primary, err)
	}
	_, body, err := ParseArtifact(data)
	if err != nil {
		// An unreadable header still means the artifact exists.
		body = string(data)
	}

	return &harvest.ArtifactInfo{
		Path:          primary,
		Size:          fi.Size(),
		ContentLength: utf8.RuneCountInString(body),
		ModTime:       fi.ModTime(),
	}, nil
}

func (s *ArtifactStore) Write(ctx context.Context, a *harvest.Artifact) (*harvest.ArtifactRef, error) {
	primary, raw, err := s.paths(a.Dir, a.Module)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(primary)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, harvest.Errorf(harvest.EPERSIST, "create directory %s: %v", dir, err)
	}

	ref := &harvest.ArtifactRef{}
	if a.Content != "" {
		data, err := FormatArtifact(a)
		if err != nil {
			return nil, harvest.Errorf(harvest.EPERSIST, "format artifact: %v", err)
		}
		if err := writeAtomic(primary, data); err != nil {
			return nil, harvest.Errorf(harvest.EPERSIST, "write %s: %v", primary, err)
		}
		ref.Path = primary
		ref.Bytes = len(data)
	}

	if s.raw && a.Raw != "" {
		if err := os.WriteFile(raw, []byte(rawHeader(a)+a.Raw), 0644); err != nil {
			ref.RawErr = err
		} else {
			ref.RawPath = raw
		}
	}

	return ref, nil
}

func (s *ArtifactStore) List(ctx context.Context, dir string) ([]string, error) {
	d, err := s.dirPath(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "directory %s not found", dir)
	} else if err != nil {
		return nil, harvest.Errorf(harvest.EPERSIST, "read directory %s: %v", d, err)
	}

	var modules []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != primaryExt {
			continue
		}
		modules = append(modules, strings.TrimSuffix(name, primaryExt))
	}
	sort.Strings(modules)
	return modules, nil
}

func (s *ArtifactStore) Read(ctx context.Context, dir, module string) (string, error) {
	primary, _, err := s.paths(dir, module)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(primary)
	if errors.Is(err, fs.ErrNotExist) {
		return "", harvest.Errorf(harvest.ENOTFOUND, "artifact %s/%s not found", dir, module)
	} else if err != nil {
		return "", harvest.Errorf(harvest.EPERSIST, "read %s: %v", primary, err)
	}

	_, body, err := ParseArtifact(data)
	if err != nil {
		return "", err
	}
	return body, nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// rawHeader is an HTML comment identifying the page a raw artifact came from.
func rawHeader(a *harvest.Artifact) string {
	var b strings.Builder
	b.WriteString("<!--\n")
	b.WriteString("source: " + a.Metadata.SourceURL + "\n")
	if a.Metadata.Title != "" {
		b.WriteString("title: " + a.Metadata.Title + "\n")
	}
	if !a.Metadata.FetchedAt.IsZero() {
		b.WriteString("fetched: " + a.Metadata.FetchedAt.UTC().Format(time.RFC3339) + "\n")
	}
	b.WriteString("-->\n")
	return b.String()
}
