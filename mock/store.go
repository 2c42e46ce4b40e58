package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is a mock implementation of harvest.ArtifactStore.
type ArtifactStore struct {
	LookupFn func(ctx context.Context, dir, module string) (*harvest.ArtifactInfo, error)
	WriteFn  func(ctx context.Context, artifact *harvest.Artifact) (*harvest.ArtifactRef, error)
	ListFn   func(ctx context.Context, dir string) ([]string, error)
	ReadFn   func(ctx context.Context, dir, module string) (string, error)
}

func (s *ArtifactStore) Lookup(ctx context.Context, dir, module string) (*harvest.ArtifactInfo, error) {
	return s.LookupFn(ctx, dir, module)
}

func (s *ArtifactStore) Write(ctx context.Context, artifact *harvest.Artifact) (*harvest.ArtifactRef, error) {
	return s.WriteFn(ctx, artifact)
}

func (s *ArtifactStore) List(ctx context.Context, dir string) ([]string, error) {
	return s.ListFn(ctx, dir)
}

func (s *ArtifactStore) Read(ctx context.Context, dir, module string) (string, error) {
	return s.ReadFn(ctx, dir, module)
}
