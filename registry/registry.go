package registry

import (
	"context"

	"trial-hand/models"
)

// Registry ist das Interface, das jeder Studienregister-Client implementieren muss.
type Registry interface {
	// Search führt eine Volltext-Suche im Register aus und gibt standardisierte
	// TrialRecords zurück.
	Search(ctx context.Context, query string, maxResults int) ([]*models.TrialRecord, error)

	// Get holt einen einzelnen Trial anhand seiner NCT-ID.
	Get(ctx context.Context, nctID string) (*models.TrialRecord, error)

	// Name gibt den eindeutigen Namen des Registers zurück (z.B. "clinicaltrials").
	Name() string
}
