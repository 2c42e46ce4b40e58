package harvest

import (
	"context"
	"time"
)

// Artifact is a document to be persisted for one module.
type Artifact struct {
	Dir    string
	Module string

	// Content is the primary markdown artifact. It is written only when non-empty.
	Content string

	// Raw is the fetched HTML. It is written only by stores created in debug mode.
	Raw string

	Metadata ArtifactMetadata
}

// ArtifactMetadata is stored alongside the primary artifact content.
type ArtifactMetadata struct {
	Title     string
	SourceURL string
	Category  string
	SubItem   string
	FetchedAt time.Time

	// Fallback is set when the content is a placeholder built after the
	// generator failed.
	Fallback bool
}

// ArtifactInfo describes an existing primary artifact.
type ArtifactInfo struct {
	Path          string
	Size          int64
	ContentLength int
	ModTime       time.Time
}

// ArtifactRef describes the result of a write.
type ArtifactRef struct {
	Path    string
	RawPath string
	Bytes   int

	// RawErr is set when the raw artifact could not be written. It never
	// invalidates the primary write.
	RawErr error
}

// ArtifactStore persists artifacts keyed by directory and module name.
type ArtifactStore interface {
	// Lookup returns information about the primary artifact.
	// Returns ENOTFOUND if it does not exist.
	Lookup(ctx context.Context, dir, module string) (*ArtifactInfo, error)

	// Write creates the directory if needed and writes the artifact.
	// A second write for the same dir and module replaces the first.
	Write(ctx context.Context, artifact *Artifact) (*ArtifactRef, error)

	// List returns the module names with a primary artifact in dir, sorted.
	List(ctx context.Context, dir string) ([]string, error)

	// Read returns the primary artifact content without metadata.
	// Returns ENOTFOUND if it does not exist.
	Read(ctx context.Context, dir, module string) (string, error)
}
