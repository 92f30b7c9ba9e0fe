package resolutions

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quorumops/minutebook/pkg/storage"
)

// ReconcileStats summarizes one reconcile sweep
type ReconcileStats struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Missing  int `json:"missing"`
	Failed   int `json:"failed"`
}

type reconcileOutcome int

const (
	outcomeRepaired reconcileOutcome = iota
	outcomeMissing
	outcomeFailed
)

// Reconciler repairs envelopes whose rendered PDF is already durable
// but whose storage pointer was never recorded, usually because the
// best-effort patch after upload failed. It never renders; envelopes
// whose object does not exist are left alone.
type Reconciler struct {
	repo        Repository
	store       storage.S3Client
	bucket      string
	batchSize   int
	concurrency int
	logger      *zap.Logger
}

// NewReconciler creates a new envelope pointer reconciler
func NewReconciler(repo Repository, store storage.S3Client, bucket string, batchSize, concurrency int, logger *zap.Logger) *Reconciler {
	if batchSize < 1 {
		batchSize = 50
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reconciler{
		repo:        repo,
		store:       store,
		bucket:      bucket,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ReconcileOnce runs a single sweep over unlinked envelopes
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats

	envelopes, err := r.repo.ListUnlinkedEnvelopes(ctx, r.batchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to list unlinked envelopes: %w", err)
	}

	stats.Scanned = len(envelopes)
	if len(envelopes) == 0 {
		return stats, nil
	}

	r.logger.Info("Reconciling unlinked envelopes", zap.Int("count", len(envelopes)))

	var mu sync.Mutex
	sem := make(chan struct{}, r.concurrency)

	for _, env := range envelopes {
		sem <- struct{}{} // Acquire semaphore

		go func(env UnlinkedEnvelope) {
			defer func() { <-sem }() // Release semaphore

			outcome := r.reconcileEnvelope(ctx, env)

			mu.Lock()
			switch outcome {
			case outcomeRepaired:
				stats.Repaired++
			case outcomeMissing:
				stats.Missing++
			case outcomeFailed:
				stats.Failed++
			}
			mu.Unlock()
		}(env)
	}

	// Wait for all goroutines to finish
	for i := 0; i < r.concurrency; i++ {
		sem <- struct{}{}
	}

	r.logger.Info("Reconcile sweep finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("repaired", stats.Repaired),
		zap.Int("missing", stats.Missing),
		zap.Int("failed", stats.Failed))

	return stats, nil
}

// reconcileEnvelope repairs a single envelope when its PDF exists
func (r *Reconciler) reconcileEnvelope(ctx context.Context, env UnlinkedEnvelope) reconcileOutcome {
	key := ObjectKey(env.EntitySlug, env.RecordID)

	exists, err := r.store.Head(ctx, r.bucket, key)
	if err != nil {
		r.logger.Error("Failed to check object existence",
			zap.String("envelope_id", env.EnvelopeID.String()),
			zap.String("storage_path", key),
			zap.Error(err))
		return outcomeFailed
	}
	if !exists {
		return outcomeMissing
	}

	record := &LedgerRecord{ID: env.RecordID, EntityID: env.EntityID, Title: env.RecordTitle}
	entity := &Entity{ID: env.EntityID, Slug: env.EntitySlug, Name: env.EntityName}

	merged, replaced, err := mergeEnvelopeMetadata(env.Metadata, record, entity, key)
	if err != nil {
		r.logger.Error("Failed to merge envelope metadata",
			zap.String("envelope_id", env.EnvelopeID.String()),
			zap.Error(err))
		return outcomeFailed
	}
	if replaced {
		r.logger.Warn("Envelope metadata is not a JSON object, replacing",
			zap.String("envelope_id", env.EnvelopeID.String()))
	}

	if err := r.repo.UpdateEnvelopeDocument(ctx, env.EnvelopeID, merged, key); err != nil {
		r.logger.Error("Failed to update envelope pointer",
			zap.String("envelope_id", env.EnvelopeID.String()),
			zap.String("storage_path", key),
			zap.Error(err))
		return outcomeFailed
	}

	r.logger.Info("Repaired envelope storage pointer",
		zap.String("envelope_id", env.EnvelopeID.String()),
		zap.String("storage_path", key))
	return outcomeRepaired
}
