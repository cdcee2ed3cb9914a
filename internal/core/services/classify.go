package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// Ensure ClassifyRunner implements the interface.
var _ driving.ClassifyService = (*ClassifyRunner)(nil)

// ClassifyRunner runs the classification pipeline: hierarchy filter over
// the note snapshot, similarity scoring against the catalog, ranking, and
// recording of Pending ledger entries. The pass is a synchronous
// computation over an immutable snapshot; the async mode wraps it in an
// explicit background task with a result channel.
type ClassifyRunner struct {
	cfg        *domain.Config
	snapshot   driven.SnapshotStore
	catalog    *Catalog
	classifier *Classifier
	filter     *HierarchyFilter
	ledger     *Ledger
	notifier   driven.Notifier

	mu      sync.Mutex
	running bool
}

// NewClassifyRunner wires the classification pipeline.
func NewClassifyRunner(
	cfg *domain.Config,
	snapshot driven.SnapshotStore,
	catalog *Catalog,
	classifier *Classifier,
	filter *HierarchyFilter,
	ledger *Ledger,
	notifier driven.Notifier,
) *ClassifyRunner {
	return &ClassifyRunner{
		cfg:        cfg,
		snapshot:   snapshot,
		catalog:    catalog,
		classifier: classifier,
		filter:     filter,
		ledger:     ledger,
		notifier:   notifier,
	}
}

// Classify runs one classification pass over the current snapshot.
func (r *ClassifyRunner) Classify(ctx context.Context, opts driving.ClassifyOptions) (*driving.RunResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = r.cfg.MinScore
	}

	result := &driving.RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	logger.Section("Classification")

	// 1. LOAD CATALOG from the snapshot, embedding what is not yet cached.
	if err := r.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	logger.Info("Catalog: %d labels (%d scorable)", r.catalog.Len(), len(r.catalog.Scorable()))

	// 2. LOAD NOTE SNAPSHOT.
	notes, err := r.snapshot.LoadNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}

	// 3. HIERARCHY FILTER. Structural errors are per-subtree: warn, skip,
	// keep going.
	targets, errs := r.filter.Targets(notes)
	for _, ferr := range errs {
		logger.Warn("Skipping subtree: %v", ferr)
	}
	result.SkippedSubtrees = len(errs)
	logger.Info("%d taggable targets (of %d notes)", len(targets), len(notes))

	// 4. SCORE AND RANK each target independently. Per-target errors never
	// abort the whole pass.
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		suggestions, err := r.classifier.Suggest(ctx, target, topK, minScore)
		if err != nil {
			logger.Warn("Failed to classify note %s (%q): %v", target.ID, target.Title, err)
			continue
		}

		if !opts.DryRun {
			for _, s := range suggestions {
				if err := r.ledger.Record(ctx, target, s); err != nil {
					return nil, fmt.Errorf("record suggestion: %w", err)
				}
			}
		}

		result.Results = append(result.Results, domain.TargetSuggestions{
			Note:        target,
			Suggestions: suggestions,
		})
	}

	result.FinishedAt = time.Now()
	return result, nil
}

// ClassifyAsync starts a background run. The returned channel receives
// exactly one result and the notifier fires when the run completes, so a
// remote trigger can return immediately and learn the outcome out of band.
func (r *ClassifyRunner) ClassifyAsync(
	ctx context.Context, opts driving.ClassifyOptions,
) (<-chan driving.AsyncResult, context.CancelFunc, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, nil, domain.ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	ch := make(chan driving.AsyncResult, 1)

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()

		result, err := r.Classify(runCtx, opts)
		ch <- driving.AsyncResult{Result: result, Err: err}

		if r.notifier != nil {
			summary := driven.RunSummary{Err: err}
			if result != nil {
				summary.RunID = result.RunID
				summary.Targets = len(result.Results)
				summary.Skipped = result.SkippedSubtrees
				for _, t := range result.Results {
					summary.Suggestions += len(t.Suggestions)
				}
			}
			if nerr := r.notifier.RunComplete(runCtx, summary); nerr != nil {
				logger.Warn("Run-complete notification failed: %v", nerr)
			}
		}
	}()

	return ch, cancel, nil
}

// ensureCatalog loads labels from the snapshot into the catalog if it is
// empty, caching any freshly computed embeddings.
func (r *ClassifyRunner) ensureCatalog(ctx context.Context) error {
	if r.catalog.Len() > 0 {
		return nil
	}

	labels, err := r.snapshot.LoadLabels(ctx)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}
	cachedModel, err := r.snapshot.EmbeddingModel(ctx)
	if err != nil {
		return fmt.Errorf("load embedding model identity: %w", err)
	}

	computed, err := r.catalog.Load(ctx, labels, cachedModel)
	if err != nil {
		return err
	}
	if len(computed) > 0 {
		if err := r.snapshot.SaveEmbeddings(ctx, r.catalog.Model(), computed); err != nil {
			return fmt.Errorf("cache embeddings: %w", err)
		}
	}
	return nil
}
