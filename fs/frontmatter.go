package fs

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/harvest"
	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML header of a primary artifact.
type frontmatter struct {
	Title    string `yaml:"title,omitempty"`
	Source   string `yaml:"source,omitempty"`
	Category string `yaml:"category,omitempty"`
	SubItem  string `yaml:"sub_item,omitempty"`
	Fetched  string `yaml:"fetched,omitempty"`
	Hash     string `yaml:"hash"`
	Fallback bool   `yaml:"fallback,omitempty"`
}

var delimiter = []byte("---\n")

// FormatArtifact renders the artifact content with YAML frontmatter.
func FormatArtifact(a *harvest.Artifact) ([]byte, error) {
	fm := frontmatter{
		Title:    a.Metadata.Title,
		Source:   a.Metadata.SourceURL,
		Category: a.Metadata.Category,
		SubItem:  a.Metadata.SubItem,
		Hash:     fmt.Sprintf("%016x", xxhash.Sum64String(a.Content)),
		Fallback: a.Metadata.Fallback,
	}
	if !a.Metadata.FetchedAt.IsZero() {
		fm.Fetched = a.Metadata.FetchedAt.UTC().Format(time.RFC3339)
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.Write(delimiter)
	b.Write(header)
	b.Write(delimiter)
	b.WriteString("\n")
	b.WriteString(a.Content)
	return b.Bytes(), nil
}

// ParseArtifact splits a stored artifact into metadata and content.
// Files without frontmatter are returned as content only.
func ParseArtifact(data []byte) (harvest.ArtifactMetadata, string, error) {
	var meta harvest.ArtifactMetadata
	if !bytes.HasPrefix(data, delimiter) {
		return meta, string(data), nil
	}

	rest := data[len(delimiter):]
	end := bytes.Index(rest, append([]byte("\n"), delimiter...))
	var header, body []byte
	switch {
	case bytes.HasPrefix(rest, delimiter):
		body = rest[len(delimiter):]
	case end >= 0:
		header = rest[:end+1]
		body = rest[end+1+len(delimiter):]
	default:
		return meta, string(data), nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return meta, "", harvest.Errorf(harvest.EPERSIST, "invalid artifact frontmatter: %v", err)
	}
	meta = harvest.ArtifactMetadata{
		Title:     fm.Title,
		SourceURL: fm.Source,
		Category:  fm.Category,
		SubItem:   fm.SubItem,
		Fallback:  fm.Fallback,
	}
	if fm.Fetched != "" {
		if t, err := time.Parse(time.RFC3339, fm.Fetched); err == nil {
			meta.FetchedAt = t
		}
	}

	return meta, string(bytes.TrimPrefix(body, []byte("\n"))), nil
}
