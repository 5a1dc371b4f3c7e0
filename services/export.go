package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trial-hand/models"
)

// Exportformate für den Gesamtbestand.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"
)

// ErrUnsupportedExportFormat wird für andere Formate als json/csv zurückgegeben.
var ErrUnsupportedExportFormat = fmt.Errorf("unsupported export format, use %q or %q", ExportFormatJSON, ExportFormatCSV)

// ExportTrials schreibt den kompletten Bestand nach w, neueste Startdaten zuerst.
// JSON enthält die vollen Datensätze inklusive aller abhängigen Gruppen, CSV eine
// flache Zeile pro Trial mit zusammengefassten Conditions und Keywords.
func (s *IngestService) ExportTrials(ctx context.Context, format string, w io.Writer) error {
	format = strings.ToLower(format)
	if format != ExportFormatJSON && format != ExportFormatCSV {
		return ErrUnsupportedExportFormat
	}

	var trials []models.Trial
	if err := s.DB.WithContext(ctx).
		Preload("Description").
		Preload("Eligibility").
		Preload("ArmsInterventions").
		Preload("Outcomes").
		Preload("Locations").
		Preload("Contacts").
		Preload("Conditions").
		Preload("Keywords").
		Preload("Interventions").
		Order("start_date desc").
		Find(&trials).Error; err != nil {
		return fmt.Errorf("load trials for export: %w", err)
	}

	if format == ExportFormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(trials)
	}
	return writeTrialsCSV(w, trials)
}

func writeTrialsCSV(w io.Writer, trials []models.Trial) error {
	cw := csv.NewWriter(w)
	header := []string{
		"nct_id", "brief_title", "official_title", "organization_name", "status",
		"phase", "study_type", "enrollment_count", "start_date", "completion_date",
		"conditions", "keywords",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, t := range trials {
		row := []string{
			t.NCTID,
			t.BriefTitle,
			t.OfficialTitle,
			t.OrganizationName,
			t.Status,
			t.Phase,
			t.StudyType,
			formatOptionalInt(t.EnrollmentCount),
			formatOptionalDate(t.StartDate),
			formatOptionalDate(t.CompletionDate),
			joinConditions(t.Conditions),
			joinKeywords(t.Keywords),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func joinConditions(conditions []models.TrialCondition) string {
	names := make([]string, 0, len(conditions))
	for _, c := range conditions {
		names = append(names, c.ConditionName)
	}
	return strings.Join(names, "; ")
}

func joinKeywords(keywords []models.TrialKeyword) string {
	names := make([]string, 0, len(keywords))
	for _, k := range keywords {
		names = append(names, k.Keyword)
	}
	return strings.Join(names, "; ")
}
