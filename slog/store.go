package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.ArtifactStore = (*LoggingArtifactStore)(nil)

// LoggingArtifactStore wraps an ArtifactStore with logging. Lookups and
// reads are logged at debug level, writes at info level.
type LoggingArtifactStore struct {
	next   harvest.ArtifactStore
	logger *slog.Logger
}

// NewLoggingArtifactStore creates a new LoggingArtifactStore.
func NewLoggingArtifactStore(next harvest.ArtifactStore, logger *slog.Logger) *LoggingArtifactStore {
	return &LoggingArtifactStore{next: next, logger: logger}
}

func (s *LoggingArtifactStore) Lookup(ctx context.Context, dir, module string) (info *harvest.ArtifactInfo, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("artifact lookup",
			"dir", dir,
			"module", module,
			"found", info != nil,
			"duration", time.Since(begin),
			"err", errOrNotFound(err),
		)
	}(time.Now())
	return s.next.Lookup(ctx, dir, module)
}

func (s *LoggingArtifactStore) Write(ctx context.Context, a *harvest.Artifact) (ref *harvest.ArtifactRef, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"dir", a.Dir,
			"module", a.Module,
			"fallback", a.Metadata.Fallback,
			"duration", time.Since(begin),
			"err", err,
		}
		if ref != nil {
			attrs = append(attrs, "path", ref.Path, "bytes", ref.Bytes)
			if ref.RawErr != nil {
				attrs = append(attrs, "raw_err", ref.RawErr)
			}
		}
		s.logger.Info("artifact write", attrs...)
	}(time.Now())
	return s.next.Write(ctx, a)
}

func (s *LoggingArtifactStore) List(ctx context.Context, dir string) (modules []string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("artifact list",
			"dir", dir,
			"count", len(modules),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.List(ctx, dir)
}

func (s *LoggingArtifactStore) Read(ctx context.Context, dir, module string) (content string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("artifact read",
			"dir", dir,
			"module", module,
			"bytes", len(content),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Read(ctx, dir, module)
}

// errOrNotFound hides the expected not-found result of a lookup.
func errOrNotFound(err error) error {
	if harvest.ErrorCode(err) == harvest.ENOTFOUND {
		return nil
	}
	return err
}
