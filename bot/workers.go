package bot

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	janitorInterval = 1 * time.Minute
	batchTTL        = 15 * time.Minute
)

// StartBatchJanitorWorker starts a background worker that drops pending
// sanction batches nobody has touched within the TTL.
// Returns a cleanup function to stop the worker gracefully.
func (b *Bot) StartBatchJanitorWorker(ctx context.Context) func() {
	ticker := time.NewTicker(janitorInterval)
	stopChan := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := b.arena.Sweep(batchTTL); removed > 0 {
					log.Infof("Swept %d abandoned sanction batch(es)", removed)
				}
			case <-stopChan:
				log.Info("Batch janitor worker stopped")
				return
			case <-ctx.Done():
				log.Info("Batch janitor worker stopped due to context cancellation")
				return
			}
		}
	}()

	log.Infof("Batch janitor worker started (interval: %v, TTL: %v)", janitorInterval, batchTTL)

	return func() {
		close(stopChan)
	}
}
