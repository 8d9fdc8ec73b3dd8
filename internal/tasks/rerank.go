package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// QueueReranker renumbers the reading queue.
type QueueReranker interface {
	RerankQueue(ctx context.Context) (int, error)
}

// NormalizeRankingsTask closes gaps and duplicates in queue rankings.
type NormalizeRankingsTask struct{}

// Config returns the queue configuration for ranking normalization tasks.
func (t NormalizeRankingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "normalize_rankings",
		MaxAttempts: 3,
		Backoff:     10 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NormalizeRankingsProcessor creates a processor function for NormalizeRankingsTask.
func NormalizeRankingsProcessor(reranker QueueReranker) backlite.QueueProcessor[NormalizeRankingsTask] {
	return func(ctx context.Context, task NormalizeRankingsTask) error {
		if reranker == nil {
			return fmt.Errorf("reranker not configured")
		}

		changed, err := reranker.RerankQueue(ctx)
		if err != nil {
			return fmt.Errorf("normalize rankings: %w", err)
		}

		log.Printf("[TASK] Normalized rankings, %d books moved", changed)
		return nil
	}
}

func NewNormalizeRankingsQueue(reranker QueueReranker) backlite.Queue {
	return backlite.NewQueue(NormalizeRankingsProcessor(reranker))
}
