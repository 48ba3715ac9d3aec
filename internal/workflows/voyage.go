package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// DefaultBatchSize is used when VoyageInput.BatchSize is not positive.
const DefaultBatchSize = 500

// ProgressQuery returns the number of sentences ingested so far.
const ProgressQuery = "progress"

// VoyageInput is the input for the voyage workflow.
type VoyageInput struct {
	BatchSize int
}

// VoyageResult summarises a completed voyage.
type VoyageResult struct {
	MMSI        string
	Origin      string
	Destination string
	Sentences   int
	Invalid     int
}

// VoyageWorkflow plans one simulated voyage and ingests its sentences in
// batches. If any batch fails, the rows already stored for the vessel are
// deleted (saga compensation).
func VoyageWorkflow(ctx workflow.Context, input VoyageInput) (*VoyageResult, error) {
	logger := workflow.GetLogger(ctx)

	ingested := 0
	if err := workflow.SetQueryHandler(ctx, ProgressQuery, func() (int, error) {
		return ingested, nil
	}); err != nil {
		return nil, err
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	// Step 1: Plan
	var voyage domain.Voyage
	if err := workflow.ExecuteActivity(ctx, ActivityPlanVoyage).Get(ctx, &voyage); err != nil {
		return nil, err
	}
	logger.Info("Voyage planned", "mmsi", voyage.MMSI, "sentences", len(voyage.Sentences))

	batch := input.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	result := &VoyageResult{
		MMSI:        voyage.MMSI,
		Origin:      voyage.Origin.Name,
		Destination: voyage.Destination.Name,
		Sentences:   len(voyage.Sentences),
	}

	// Step 2: Ingest in batches
	for start := 0; start < len(voyage.Sentences); start += batch {
		end := min(start+batch, len(voyage.Sentences))
		var invalid int
		err := workflow.ExecuteActivity(ctx, ActivityIngestSentences, voyage.Sentences[start:end]).Get(ctx, &invalid)
		if err != nil {
			logger.Warn("ingest failed, discarding voyage", "mmsi", voyage.MMSI, "error", err)
			// Compensate even if the workflow is being cancelled.
			dctx, _ := workflow.NewDisconnectedContext(ctx)
			if derr := workflow.ExecuteActivity(dctx, ActivityDiscardVoyage, voyage.MMSI).Get(dctx, nil); derr != nil {
				logger.Error("discard failed", "mmsi", voyage.MMSI, "error", derr)
			}
			return nil, err
		}
		ingested = end
		result.Invalid += invalid
	}

	// Step 3: Refresh the dashboard. A stale cache expires on its own.
	if err := workflow.ExecuteActivity(ctx, ActivityInvalidateSummaries).Get(ctx, nil); err != nil {
		logger.Warn("summaries invalidation failed", "error", err)
	}

	logger.Info("Voyage ingested", "mmsi", result.MMSI, "invalid", result.Invalid)
	return result, nil
}
