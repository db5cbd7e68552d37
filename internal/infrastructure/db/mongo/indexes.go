package mongo

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Indexer creates the indexes a repository depends on. Creation must be
// idempotent.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates every indexer's indexes, retrying the ones that fail
// every interval until they succeed or ctx is cancelled. Uniqueness checks
// rely on these indexes, so a server that was down at startup still gets
// them once it comes back.
func EnsureIndexes(ctx context.Context, log zerolog.Logger, interval time.Duration, indexers ...Indexer) {
	pending := indexers
	for {
		var failed []Indexer
		for _, ix := range pending {
			if err := ix.EnsureIndexes(ctx); err != nil {
				log.Warn().Err(err).Dur("retry_in", interval).Msg("failed to ensure indexes")
				failed = append(failed, ix)
			}
		}
		if len(failed) == 0 {
			log.Info().Int("repositories", len(indexers)).Msg("indexes ready")
			return
		}
		pending = failed

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
