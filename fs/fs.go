// Package fs provides file-based storage for harvested artifacts.
//
// Artifacts live at <root>/<dir>/<module>.md with YAML frontmatter. In debug
// mode the fetched HTML is kept next to them as <module>.html.
package fs

import (
	"path/filepath"

	"github.com/fwojciec/harvest"
)

const (
	primaryExt = ".md"
	rawExt     = ".html"
)

// checkSegment rejects names that would escape their parent directory.
func checkSegment(kind, s string) error {
	if !harvest.ValidPathSegment(s) {
		return harvest.Errorf(harvest.EPERSIST, "invalid %s name %q", kind, s)
	}
	return nil
}

func (s *ArtifactStore) dirPath(dir string) (string, error) {
	if err := checkSegment("directory", dir); err != nil {
		return "", err
	}
	return filepath.Join(s.root, dir), nil
}

func (s *ArtifactStore) paths(dir, module string) (primary, raw string, err error) {
	d, err := s.dirPath(dir)
	if err != nil {
		return "", "", err
	}
	if err := checkSegment("module", module); err != nil {
		return "", "", err
	}
	return filepath.Join(d, module+primaryExt), filepath.Join(d, module+rawExt), nil
}
