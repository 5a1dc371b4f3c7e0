package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trial-hand/config"
	"trial-hand/models"
)

// Open stellt die Verbindung zur PostgreSQL-Datenbank her.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Migrate legt alle Tabellen an und zieht die Postgres-spezifischen Objekte nach
// (Trigger, View, Volltext-Indexe). Die View wird mit CREATE OR REPLACE neu erzeugt,
// damit sie bei Schema-Änderungen der Basistabellen konsistent bleibt.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&models.Trial{},
		&models.TrialDescription{},
		&models.TrialEligibility{},
		&models.TrialArmIntervention{},
		&models.TrialOutcome{},
		&models.TrialLocation{},
		&models.TrialContact{},
		&models.TrialCondition{},
		&models.TrialKeyword{},
		&models.TrialIntervention{},
		&models.MaintenanceLog{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		log.Debug("Non-postgres dialect, skipping trigger/view/fulltext DDL",
			zap.String("dialect", db.Dialector.Name()))
		return nil
	}

	for _, ddl := range postgresDDL {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("postgres ddl failed: %w", err)
		}
	}
	log.Info("Database migration completed",
		zap.Int("postgres_ddl_statements", len(postgresDDL)))
	return nil
}

// postgresDDL ergänzt, was AutoMigrate nicht ausdrücken kann. updated_at wird
// zusätzlich per Trigger gepflegt, damit die Garantie auch für manuelle UPDATEs
// außerhalb des Write-Paths gilt.
var postgresDDL = []string{
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = CURRENT_TIMESTAMP;
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,

	`DROP TRIGGER IF EXISTS trials_set_updated_at ON trials`,

	`CREATE TRIGGER trials_set_updated_at
		BEFORE UPDATE ON trials
		FOR EACH ROW
		EXECUTE FUNCTION set_updated_at()`,

	// Denormalisierte Sicht für Einzelabfragen "kompletter" Trials.
	`CREATE OR REPLACE VIEW trial_complete_info AS
	SELECT
		t.nct_id,
		t.brief_title,
		t.official_title,
		t.organization_name,
		t.status,
		t.phase,
		t.study_type,
		t.enrollment_count,
		t.start_date,
		t.completion_date,
		t.created_at,
		t.updated_at,
		d.brief_summary,
		d.detailed_description,
		e.inclusion_criteria,
		e.exclusion_criteria,
		e.minimum_age,
		e.maximum_age,
		e.gender,
		e.healthy_volunteers
	FROM trials t
	LEFT JOIN trial_descriptions d ON t.nct_id = d.nct_id
	LEFT JOIN trial_eligibility e ON t.nct_id = e.nct_id`,

	// Volltext-Indexe für Substring-/Phrasensuche auf Freitextfeldern.
	`CREATE INDEX IF NOT EXISTS idx_trials_title_fts
		ON trials USING gin(to_tsvector('english', coalesce(brief_title, '') || ' ' || coalesce(official_title, '')))`,

	`CREATE INDEX IF NOT EXISTS idx_trial_descriptions_fts
		ON trial_descriptions USING gin(to_tsvector('english', coalesce(brief_summary, '') || ' ' || coalesce(detailed_description, '')))`,

	`CREATE INDEX IF NOT EXISTS idx_trial_conditions_fts
		ON trial_conditions USING gin(to_tsvector('english', condition_name))`,

	`CREATE INDEX IF NOT EXISTS idx_trial_keywords_fts
		ON trial_keywords USING gin(to_tsvector('english', keyword))`,
}
