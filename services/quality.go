package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"trial-hand/models"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[+]?[0-9\s\-()]{10,}$`)
)

// AxisResult ist das Ergebnis einer Qualitätsachse: Score in [0,1], die Anzahl
// der Treffer pro Einzelprüfung und die betroffenen NCT-IDs.
type AxisResult struct {
	Score        float64          `json:"score"`
	Checks       map[string]int64 `json:"checks"`
	OffendingIDs []string         `json:"offending_nct_ids"`
}

// QualityReport ist der Gesamtbericht eines Prüflaufs. OverallScore ist bewusst
// der ungewichtete Mittelwert der vier Achsen-Scores und damit reproduzierbar.
type QualityReport struct {
	Timestamp    time.Time  `json:"timestamp"`
	TotalTrials  int64      `json:"total_trials"`
	Completeness AxisResult `json:"completeness"`
	Consistency  AxisResult `json:"consistency"`
	Format       AxisResult `json:"format"`
	Relationship AxisResult `json:"relationship"`
	OverallScore float64    `json:"overall_score"`
	QualityLevel string     `json:"quality_level"`
	Issues       []string   `json:"issues"`
}

// QualityService prüft den Datenbestand read-only auf Vollständigkeit, Konsistenz,
// Format und Beziehungs-Integrität. Ein Lauf verändert nie gespeicherte Daten.
type QualityService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewQualityService erstellt eine neue Instanz des QualityService.
func NewQualityService(db *gorm.DB, logger *zap.Logger) *QualityService {
	return &QualityService{DB: db, Logger: logger}
}

// Run führt alle vier Achsenprüfungen aus und aggregiert den Bericht.
func (s *QualityService) Run(ctx context.Context) (*QualityReport, error) {
	db := s.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Trial{}).Count(&total).Error; err != nil {
		return nil, err
	}

	report := &QualityReport{
		Timestamp:   time.Now().UTC(),
		TotalTrials: total,
		Issues:      []string{},
	}
	if total == 0 {
		report.QualityLevel = "No Data"
		return report, nil
	}

	completeness, err := s.checkCompleteness(db)
	if err != nil {
		return nil, fmt.Errorf("completeness checks: %w", err)
	}
	consistency, err := s.checkConsistency(db)
	if err != nil {
		return nil, fmt.Errorf("consistency checks: %w", err)
	}
	format, err := s.checkFormat(db)
	if err != nil {
		return nil, fmt.Errorf("format checks: %w", err)
	}
	relationship, err := s.checkRelationships(db)
	if err != nil {
		return nil, fmt.Errorf("relationship checks: %w", err)
	}

	report.Completeness = buildAxis(completeness, total)
	report.Consistency = buildAxis(consistency, total)
	report.Format = buildAxis(format, total)
	report.Relationship = buildAxis(relationship, total)

	report.OverallScore = (report.Completeness.Score +
		report.Consistency.Score +
		report.Format.Score +
		report.Relationship.Score) / 4
	report.QualityLevel = qualityLevel(report.OverallScore)

	for _, axis := range []struct {
		name   string
		checks []checkResult
	}{
		{"completeness", completeness},
		{"consistency", consistency},
		{"format", format},
		{"relationship", relationship},
	} {
		for _, c := range axis.checks {
			if len(c.nctIDs) > 0 {
				report.Issues = append(report.Issues,
					fmt.Sprintf("%s/%s: %d records affected", axis.name, c.name, len(c.nctIDs)))
			}
		}
	}

	s.Logger.Info("Quality check completed",
		zap.Int64("total_trials", total),
		zap.Float64("overall_score", report.OverallScore),
		zap.String("quality_level", report.QualityLevel),
		zap.Int("issues", len(report.Issues)))
	return report, nil
}

type checkResult struct {
	name   string
	nctIDs []string
}

// buildAxis rechnet Prüftreffer in einen Score um: 1 - Treffer/Gesamtzahl, bei 0
// gedeckelt. Jedes zusätzliche fehlende Pflichtfeld senkt den Score, nie umgekehrt.
func buildAxis(checks []checkResult, total int64) AxisResult {
	axis := AxisResult{Checks: map[string]int64{}}
	seen := map[string]bool{}
	var hits int64
	for _, c := range checks {
		axis.Checks[c.name] = int64(len(c.nctIDs))
		hits += int64(len(c.nctIDs))
		for _, id := range c.nctIDs {
			if id != "" && !seen[id] {
				seen[id] = true
				axis.OffendingIDs = append(axis.OffendingIDs, id)
			}
		}
	}
	sort.Strings(axis.OffendingIDs)
	score := 1 - float64(hits)/float64(total)
	if score < 0 {
		score = 0
	}
	axis.Score = score
	return axis
}

func (s *QualityService) checkCompleteness(db *gorm.DB) ([]checkResult, error) {
	queries := []struct {
		name string
		sql  string
	}{
		{"missing_nct_id", `SELECT nct_id FROM trials WHERE nct_id IS NULL OR nct_id = ''`},
		{"missing_brief_title", `SELECT nct_id FROM trials WHERE brief_title IS NULL OR brief_title = ''`},
		{"missing_official_title", `SELECT nct_id FROM trials WHERE official_title IS NULL OR official_title = ''`},
		{"missing_status", `SELECT nct_id FROM trials WHERE status IS NULL OR status = ''`},
		{"missing_study_type", `SELECT nct_id FROM trials WHERE study_type IS NULL OR study_type = ''`},
		{"missing_organization", `SELECT nct_id FROM trials WHERE organization_name IS NULL OR organization_name = ''`},
		{"missing_descriptions", `SELECT t.nct_id FROM trials t LEFT JOIN trial_descriptions d ON t.nct_id = d.nct_id WHERE d.id IS NULL`},
		{"missing_eligibility", `SELECT t.nct_id FROM trials t LEFT JOIN trial_eligibility e ON t.nct_id = e.nct_id WHERE e.id IS NULL`},
	}
	return s.runListChecks(db, queries)
}

func (s *QualityService) checkConsistency(db *gorm.DB) ([]checkResult, error) {
	queries := []struct {
		name string
		sql  string
	}{
		{"invalid_dates", `SELECT nct_id FROM trials
			WHERE (start_date IS NOT NULL AND completion_date IS NOT NULL AND start_date > completion_date)
			OR (start_date IS NOT NULL AND primary_completion_date IS NOT NULL AND start_date > primary_completion_date)`},
		{"invalid_enrollment", `SELECT nct_id FROM trials
			WHERE enrollment_count < 0 OR enrollment_count > 1000000`},
		{"duplicate_nct_ids", `SELECT nct_id FROM trials GROUP BY nct_id HAVING COUNT(*) > 1`},
	}
	return s.runListChecks(db, queries)
}

// checkFormat prüft Feld-Formate. Die Regex-Prüfungen laufen in Go statt in SQL,
// damit sie dialektunabhängig sind.
func (s *QualityService) checkFormat(db *gorm.DB) ([]checkResult, error) {
	var results []checkResult

	var trials []models.Trial
	if err := db.Select("nct_id", "status", "phase", "study_type", "start_date", "completion_date").
		Find(&trials).Error; err != nil {
		return nil, err
	}

	var badNCT, badVocab, badDates []string
	lower := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	upper := time.Now().AddDate(10, 0, 0)
	for _, t := range trials {
		if !nctIDPattern.MatchString(t.NCTID) {
			badNCT = append(badNCT, t.NCTID)
		}
		if !models.KnownStatus(t.Status) || !models.KnownPhase(t.Phase) || !models.KnownStudyType(t.StudyType) {
			badVocab = append(badVocab, t.NCTID)
		}
		if dateOutOfRange(t.StartDate, lower, upper) || dateOutOfRange(t.CompletionDate, lower, upper) {
			badDates = append(badDates, t.NCTID)
		}
	}
	results = append(results,
		checkResult{"invalid_nct_format", badNCT},
		checkResult{"unknown_vocabulary", badVocab},
		checkResult{"implausible_dates", badDates},
	)

	var locations []models.TrialLocation
	if err := db.Select("nct_id", "facility_contact_phone", "facility_contact_email").
		Find(&locations).Error; err != nil {
		return nil, err
	}
	var badEmail, badPhone []string
	for _, l := range locations {
		if l.FacilityContactEmail != "" && !emailPattern.MatchString(l.FacilityContactEmail) {
			badEmail = append(badEmail, l.NCTID)
		}
		if l.FacilityContactPhone != "" && !phonePattern.MatchString(l.FacilityContactPhone) {
			badPhone = append(badPhone, l.NCTID)
		}
	}

	var contacts []models.TrialContact
	if err := db.Select("nct_id", "phone", "email").Find(&contacts).Error; err != nil {
		return nil, err
	}
	for _, c := range contacts {
		if c.Email != "" && !emailPattern.MatchString(c.Email) {
			badEmail = append(badEmail, c.NCTID)
		}
		if c.Phone != "" && !phonePattern.MatchString(c.Phone) {
			badPhone = append(badPhone, c.NCTID)
		}
	}
	results = append(results,
		checkResult{"invalid_email_format", badEmail},
		checkResult{"invalid_phone_format", badPhone},
	)

	return results, nil
}

func (s *QualityService) checkRelationships(db *gorm.DB) ([]checkResult, error) {
	queries := []struct {
		name string
		sql  string
	}{
		// Verwaiste Kind-Zeilen: nct_id ohne zugehörigen Trial.
		{"orphaned_descriptions", orphanQuery("trial_descriptions")},
		{"orphaned_eligibility", orphanQuery("trial_eligibility")},
		{"orphaned_arms_interventions", orphanQuery("trial_arms_interventions")},
		{"orphaned_outcomes", orphanQuery("trial_outcomes")},
		{"orphaned_locations", orphanQuery("trial_locations")},
		{"orphaned_contacts", orphanQuery("trial_contacts")},
		{"orphaned_conditions", orphanQuery("trial_conditions")},
		{"orphaned_keywords", orphanQuery("trial_keywords")},
		{"orphaned_interventions", orphanQuery("trial_interventions")},
		// Trials ohne erwartete Begleitdaten.
		{"missing_conditions", `SELECT t.nct_id FROM trials t LEFT JOIN trial_conditions c ON t.nct_id = c.nct_id WHERE c.id IS NULL`},
		{"missing_keywords", `SELECT t.nct_id FROM trials t LEFT JOIN trial_keywords k ON t.nct_id = k.nct_id WHERE k.id IS NULL`},
		{"missing_outcomes", `SELECT t.nct_id FROM trials t LEFT JOIN trial_outcomes o ON t.nct_id = o.nct_id WHERE o.id IS NULL`},
		{"missing_locations", `SELECT t.nct_id FROM trials t LEFT JOIN trial_locations l ON t.nct_id = l.nct_id WHERE l.id IS NULL`},
	}
	return s.runListChecks(db, queries)
}

func orphanQuery(table string) string {
	return `SELECT DISTINCT c.nct_id FROM ` + table + ` c LEFT JOIN trials t ON c.nct_id = t.nct_id WHERE t.id IS NULL`
}

func (s *QualityService) runListChecks(db *gorm.DB, queries []struct {
	name string
	sql  string
}) ([]checkResult, error) {
	results := make([]checkResult, 0, len(queries))
	for _, q := range queries {
		var ids []string
		if err := db.Raw(q.sql).Scan(&ids).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", q.name, err)
		}
		results = append(results, checkResult{name: q.name, nctIDs: ids})
	}
	return results, nil
}

func dateOutOfRange(d *time.Time, lower, upper time.Time) bool {
	return d != nil && (d.Before(lower) || d.After(upper))
}

func qualityLevel(score float64) string {
	switch {
	case score >= 0.9:
		return "Excellent"
	case score >= 0.8:
		return "Good"
	case score >= 0.7:
		return "Fair"
	case score >= 0.6:
		return "Poor"
	default:
		return "Critical"
	}
}
