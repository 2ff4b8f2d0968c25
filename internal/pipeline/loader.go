package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/metar-etl/internal/domain"
)

// FanOutLoader writes every batch to each of its loaders in order. The first
// failure aborts the batch; loaders must therefore tolerate a retried batch
// they have already seen (the Kafka writer re-publishes, the SQLite store
// ignores known IDs).
type FanOutLoader []BatchLoader

func (f FanOutLoader) LoadBatch(ctx context.Context, observations []domain.Observation) error {
	for i, l := range f {
		if err := l.LoadBatch(ctx, observations); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}
