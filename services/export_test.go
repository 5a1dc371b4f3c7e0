package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trial-hand/models"
)

func TestExportTrialsJSON(t *testing.T) {
	svc := newTestIngestService(t)
	seedSearchFixtures(t, svc)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTrials(context.Background(), ExportFormatJSON, &buf))

	var exported []models.Trial
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	require.Len(t, exported, 3)

	// Sortierung: neuestes Startdatum zuerst
	assert.Equal(t, "NCT00000003", exported[0].NCTID)
	assert.Equal(t, "NCT00000002", exported[2].NCTID)

	// Abhängige Gruppen sind enthalten
	require.NotEmpty(t, exported[0].Conditions)
	assert.Equal(t, "Melanoma", exported[0].Conditions[0].ConditionName)
	require.NotNil(t, exported[2].Description)
	assert.Equal(t, "Secondary prevention study.", exported[2].Description.BriefSummary)
}

func TestExportTrialsCSV(t *testing.T) {
	svc := newTestIngestService(t)
	seedSearchFixtures(t, svc)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTrials(context.Background(), ExportFormatCSV, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // Header + drei Trials

	assert.Equal(t, "nct_id", rows[0][0])
	assert.Equal(t, "conditions", rows[0][10])

	// Neuestes Startdatum zuerst; Mehrfachwerte mit Semikolon zusammengefasst.
	assert.Equal(t, "NCT00000003", rows[1][0])
	assert.Equal(t, "2024-09-01", rows[1][8])
	assert.Equal(t, "NCT00000002", rows[3][0])
	assert.Equal(t, "Myocardial Infarction", rows[3][10])
	assert.Equal(t, "aspirin; cardiology", rows[3][11])
}

func TestExportTrialsUnsupportedFormat(t *testing.T) {
	svc := newTestIngestService(t)

	var buf bytes.Buffer
	err := svc.ExportTrials(context.Background(), "xml", &buf)
	require.ErrorIs(t, err, ErrUnsupportedExportFormat)
	assert.Zero(t, buf.Len())
}
