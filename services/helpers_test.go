package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trial-hand/database"
	"trial-hand/models"
)

// newTestDB öffnet eine In-Memory-Datenbank und migriert das komplette Schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-Memory-Datenbank lebt pro Verbindung
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

func newTestIngestService(t *testing.T) *IngestService {
	t.Helper()
	return NewIngestService(newTestDB(t), zap.NewNop())
}

func intPtr(v int) *int              { return &v }
func boolPtr(v bool) *bool           { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func mustDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// sampleRecord baut einen vollständigen, formal sauberen Datensatz.
func sampleRecord(nctID string) *models.TrialRecord {
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	completion := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	return &models.TrialRecord{
		NCTID:             nctID,
		ProtocolSectionID: "PROT-001",
		OrganizationName:  "University Hospital",
		OrganizationType:  "OTHER",
		BriefTitle:        "Metformin in Type 2 Diabetes",
		OfficialTitle:     "A Randomized Trial of Metformin in Adults With Type 2 Diabetes",
		Status:            models.StatusRecruiting,
		Phase:             models.Phase3,
		StudyType:         models.StudyTypeInterventional,
		EnrollmentCount:   intPtr(200),
		EnrollmentType:    "ESTIMATED",

		StartDate:             timePtr(start),
		CompletionDate:        timePtr(completion),
		PrimaryCompletionDate: timePtr(completion),

		IsFDARegulatedDrug: boolPtr(true),

		Description: &models.DescriptionRecord{
			BriefSummary:        "Short summary.",
			DetailedDescription: "Longer description of the protocol.",
		},
		Eligibility: &models.EligibilityRecord{
			InclusionCriteria: "Adults with confirmed diagnosis",
			ExclusionCriteria: "Pregnancy",
			MinimumAge:        "18 Years",
			MaximumAge:        "75 Years",
			Gender:            "ALL",
			HealthyVolunteers: boolPtr(false),
		},
		ArmsInterventions: []models.ArmInterventionRecord{
			{ArmGroupLabel: "Metformin", ArmGroupType: "EXPERIMENTAL", InterventionName: "Metformin 500mg"},
			{ArmGroupLabel: "Placebo", ArmGroupType: "PLACEBO_COMPARATOR", InterventionName: "Placebo"},
		},
		Outcomes: []models.OutcomeRecord{
			{OutcomeType: models.OutcomePrimary, OutcomeMeasure: "HbA1c change", OutcomeTimeFrame: "24 weeks"},
			{OutcomeType: models.OutcomeSecondary, OutcomeMeasure: "Fasting glucose", OutcomeTimeFrame: "24 weeks"},
		},
		Locations: []models.LocationRecord{
			{
				FacilityName:         "Main Clinic",
				FacilityCity:         "Boston",
				FacilityCountry:      "United States",
				FacilityContactPhone: "+1 617 555 0100",
				FacilityContactEmail: "clinic@example.org",
			},
		},
		Contacts: []models.ContactRecord{
			{ContactType: models.ContactPrimary, Name: "Dr. Jordan Lee", Phone: "+1 617 555 0101", Email: "lee@example.org"},
			{ContactType: models.ContactOfficial, Name: "Prof. Sam Rivera", Affiliation: "University Hospital"},
		},
		Interventions: []models.InterventionRecord{
			{InterventionName: "Metformin 500mg", InterventionType: "DRUG", Description: "Oral, twice daily"},
		},
		Conditions: []string{"Type 2 Diabetes", "Hyperglycemia"},
		Keywords:   []string{"diabetes", "metformin"},
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
