package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trial-hand/models"
)

func TestUpsertTrialCreatesAllRows(t *testing.T) {
	svc := newTestIngestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpsertTrial(ctx, sampleRecord("NCT00001234")))

	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.Trial{}))
	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.TrialDescription{}))
	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.TrialEligibility{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialArmIntervention{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialOutcome{}))
	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.TrialLocation{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialContact{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialCondition{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialKeyword{}))
	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.TrialIntervention{}))
}

// Nachstellung des Standard-Szenarios: Erst-Ingest, dann Re-Ingest mit geändertem
// Status. Zeilenzahlen bleiben gleich, Status und updated_at rücken vor.
func TestUpsertTrialReingestUpdatesInPlace(t *testing.T) {
	svc := newTestIngestService(t)
	ctx := context.Background()

	rec := &models.TrialRecord{
		NCTID:      "NCT00000001",
		BriefTitle: "T",
		Status:     models.StatusRecruiting,
		Phase:      models.Phase3,
		Conditions: []string{"Diabetes"},
		Keywords:   []string{"diabetes", "phase3"},
	}
	require.NoError(t, svc.UpsertTrial(ctx, rec))

	first, err := svc.GetTrial(ctx, "NCT00000001")
	require.NoError(t, err)
	firstUpdatedAt := first.UpdatedAt

	time.Sleep(20 * time.Millisecond)

	rec.Status = models.StatusCompleted
	require.NoError(t, svc.UpsertTrial(ctx, rec))

	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.Trial{}))
	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.TrialCondition{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialKeyword{}))

	second, err := svc.GetTrial(ctx, "NCT00000001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, second.Status)
	assert.Equal(t, "T", second.BriefTitle)
	assert.True(t, second.UpdatedAt.After(firstUpdatedAt),
		"updated_at must advance on re-ingest: %v -> %v", firstUpdatedAt, second.UpdatedAt)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())

	require.Len(t, second.Conditions, 1)
	assert.Equal(t, "Diabetes", second.Conditions[0].ConditionName)
}

func TestUpsertTrialOmittedGroupsStayUntouched(t *testing.T) {
	svc := newTestIngestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpsertTrial(ctx, sampleRecord("NCT00001234")))

	// Re-Ingest nur mit Stammdaten: alle Untergruppen bleiben stehen.
	require.NoError(t, svc.UpsertTrial(ctx, &models.TrialRecord{
		NCTID:      "NCT00001234",
		BriefTitle: "Renamed",
	}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialCondition{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialOutcome{}))
	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.TrialDescription{}))

	// Explizit leere Liste löscht die Gruppe.
	require.NoError(t, svc.UpsertTrial(ctx, &models.TrialRecord{
		NCTID:      "NCT00001234",
		Conditions: []string{},
	}))
	assert.EqualValues(t, 0, countRows(t, svc.DB, &models.TrialCondition{}))
	assert.EqualValues(t, 2, countRows(t, svc.DB, &models.TrialOutcome{}))
}

func TestUpsertTrialRejectsInvalidNCTID(t *testing.T) {
	svc := newTestIngestService(t)
	ctx := context.Background()

	for _, id := range []string{"", "NCT123", "NCT123456789", "nct00000001", "00000001"} {
		err := svc.UpsertTrial(ctx, &models.TrialRecord{NCTID: id})
		assert.ErrorIs(t, err, ErrInvalidNCTID, "id %q", id)
	}
	assert.ErrorIs(t, svc.UpsertTrial(ctx, nil), ErrInvalidNCTID)

	assert.EqualValues(t, 0, countRows(t, svc.DB, &models.Trial{}))
}

func TestDeleteTrialRemovesAllDependents(t *testing.T) {
	svc := newTestIngestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpsertTrial(ctx, sampleRecord("NCT00001234")))
	require.NoError(t, svc.UpsertTrial(ctx, sampleRecord("NCT00005678")))

	require.NoError(t, svc.DeleteTrial(ctx, "NCT00001234"))

	assert.EqualValues(t, 1, countRows(t, svc.DB, &models.Trial{}))
	for _, child := range []interface{}{
		&models.TrialDescription{}, &models.TrialEligibility{},
		&models.TrialArmIntervention{}, &models.TrialOutcome{},
		&models.TrialLocation{}, &models.TrialContact{},
		&models.TrialCondition{}, &models.TrialKeyword{},
		&models.TrialIntervention{},
	} {
		var n int64
		require.NoError(t, svc.DB.Model(child).Where("nct_id = ?", "NCT00001234").Count(&n).Error)
		assert.Zero(t, n, "%T rows must be gone", child)
	}

	// Der zweite Trial bleibt vollständig.
	other, err := svc.GetTrial(ctx, "NCT00005678")
	require.NoError(t, err)
	assert.Len(t, other.Conditions, 2)

	assert.ErrorIs(t, svc.DeleteTrial(ctx, "NCT00001234"), ErrTrialNotFound)
}

func TestGetTrialLoadsAllSubgroups(t *testing.T) {
	svc := newTestIngestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpsertTrial(ctx, sampleRecord("NCT00001234")))

	trial, err := svc.GetTrial(ctx, "NCT00001234")
	require.NoError(t, err)

	require.NotNil(t, trial.Description)
	assert.Equal(t, "Short summary.", trial.Description.BriefSummary)
	require.NotNil(t, trial.Eligibility)
	assert.Equal(t, "18 Years", trial.Eligibility.MinimumAge)
	assert.Len(t, trial.ArmsInterventions, 2)
	assert.Len(t, trial.Outcomes, 2)
	assert.Len(t, trial.Locations, 1)
	assert.Len(t, trial.Contacts, 2)
	assert.Len(t, trial.Conditions, 2)
	assert.Len(t, trial.Keywords, 2)
	assert.Len(t, trial.Interventions, 1)
}

func TestGetTrialNotFound(t *testing.T) {
	svc := newTestIngestService(t)

	_, err := svc.GetTrial(context.Background(), "NCT99999999")
	assert.ErrorIs(t, err, ErrTrialNotFound)
}
