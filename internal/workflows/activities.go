package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/usecases"
)

// Activity names as registered on the worker.
const (
	ActivityPlanVoyage          = "PlanVoyage"
	ActivityIngestSentences     = "IngestSentences"
	ActivityInvalidateSummaries = "InvalidateSummaries"
	ActivityDiscardVoyage       = "DiscardVoyage"
)

// VoyageActivities holds the activity implementations for the voyage workflow.
type VoyageActivities struct {
	Simulation *usecases.SimulationService
	Ingest     *usecases.IngestService
	Vessels    *usecases.VesselService
}

// PlanVoyage allocates an MMSI and port pair and encodes the route.
func (a *VoyageActivities) PlanVoyage(ctx context.Context) (*domain.Voyage, error) {
	v, err := a.Simulation.PlanVoyage(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan voyage: %w", err)
	}
	return v, nil
}

// IngestSentences stores one batch and returns how many records were invalid.
func (a *VoyageActivities) IngestSentences(ctx context.Context, msgs []domain.AISSentence) (int, error) {
	invalid, err := a.Ingest.IngestBatch(ctx, msgs)
	if err != nil {
		return 0, fmt.Errorf("ingest %d sentences: %w", len(msgs), err)
	}
	activity.GetLogger(ctx).Info("batch ingested", "sentences", len(msgs), "invalid", invalid)
	return invalid, nil
}

// InvalidateSummaries drops the cached dashboard summaries.
func (a *VoyageActivities) InvalidateSummaries(ctx context.Context) error {
	return a.Vessels.InvalidateSummaries(ctx)
}

// DiscardVoyage deletes every stored message of mmsi (saga compensation).
func (a *VoyageActivities) DiscardVoyage(ctx context.Context, mmsi string) (int64, error) {
	n, err := a.Vessels.Discard(ctx, mmsi)
	if err != nil {
		return 0, err
	}
	activity.GetLogger(ctx).Info("voyage discarded", "mmsi", mmsi, "rows", n)
	return n, nil
}
