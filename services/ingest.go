package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trial-hand/models"
)

var nctIDPattern = regexp.MustCompile(`^NCT[0-9]{8}$`)

// Spalten der trials-Tabelle, die bei einem Re-Ingest aktualisiert werden.
// created_at und nct_id bleiben unangetastet; updated_at rückt mit jedem Upsert vor.
var trialUpdateColumns = []string{
	"protocol_section_id", "organization_name", "organization_type",
	"brief_title", "official_title", "status", "phase", "study_type",
	"enrollment_count", "enrollment_type",
	"start_date", "completion_date", "primary_completion_date",
	"is_fda_regulated_drug", "is_fda_regulated_device", "is_unapproved_device",
	"is_ppsd", "is_us_export",
	"updated_at",
}

// IngestService ist der einzige Schreiber: er übersetzt einen denormalisierten
// TrialRecord in genau eine Transaktion über die trials-Tabelle und alle gelieferten
// Untergruppen.
type IngestService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewIngestService erstellt eine neue Instanz des IngestService.
func NewIngestService(db *gorm.DB, logger *zap.Logger) *IngestService {
	return &IngestService{DB: db, Logger: logger}
}

// UpsertTrial schreibt einen Trial-Datensatz atomar: Stammdaten per
// INSERT ... ON CONFLICT (nct_id) DO UPDATE, jede gelieferte Untergruppe per
// Delete-then-Insert. Nicht gelieferte Untergruppen bleiben unverändert.
// Entweder committet alles oder nichts; intern wird nicht erneut versucht.
func (s *IngestService) UpsertTrial(ctx context.Context, rec *models.TrialRecord) error {
	if rec == nil || !nctIDPattern.MatchString(rec.NCTID) {
		return fmt.Errorf("%w: %q", ErrInvalidNCTID, nctID(rec))
	}

	log := s.Logger.With(zap.String("nct_id", rec.NCTID))

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trial := recordToTrial(rec)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "nct_id"}},
			DoUpdates: clause.AssignmentColumns(trialUpdateColumns),
		}).Create(trial).Error; err != nil {
			return fmt.Errorf("upsert trials row: %w", err)
		}

		if rec.Description != nil {
			if err := replaceRows(tx, rec.NCTID, &models.TrialDescription{}, []models.TrialDescription{{
				NCTID:               rec.NCTID,
				BriefSummary:        rec.Description.BriefSummary,
				DetailedDescription: rec.Description.DetailedDescription,
			}}); err != nil {
				return fmt.Errorf("replace trial_descriptions: %w", err)
			}
		}

		if rec.Eligibility != nil {
			if err := replaceRows(tx, rec.NCTID, &models.TrialEligibility{}, []models.TrialEligibility{{
				NCTID:             rec.NCTID,
				InclusionCriteria: rec.Eligibility.InclusionCriteria,
				ExclusionCriteria: rec.Eligibility.ExclusionCriteria,
				MinimumAge:        rec.Eligibility.MinimumAge,
				MaximumAge:        rec.Eligibility.MaximumAge,
				Gender:            rec.Eligibility.Gender,
				HealthyVolunteers: rec.Eligibility.HealthyVolunteers,
			}}); err != nil {
				return fmt.Errorf("replace trial_eligibility: %w", err)
			}
		}

		if rec.ArmsInterventions != nil {
			rows := make([]models.TrialArmIntervention, 0, len(rec.ArmsInterventions))
			for _, a := range rec.ArmsInterventions {
				rows = append(rows, models.TrialArmIntervention{
					NCTID:                   rec.NCTID,
					ArmGroupLabel:           a.ArmGroupLabel,
					ArmGroupType:            a.ArmGroupType,
					ArmGroupDescription:     a.ArmGroupDescription,
					InterventionName:        a.InterventionName,
					InterventionType:        a.InterventionType,
					InterventionDescription: a.InterventionDescription,
				})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialArmIntervention{}, rows); err != nil {
				return fmt.Errorf("replace trial_arms_interventions: %w", err)
			}
		}

		if rec.Outcomes != nil {
			rows := make([]models.TrialOutcome, 0, len(rec.Outcomes))
			for _, o := range rec.Outcomes {
				rows = append(rows, models.TrialOutcome{
					NCTID:              rec.NCTID,
					OutcomeType:        o.OutcomeType,
					OutcomeMeasure:     o.OutcomeMeasure,
					OutcomeDescription: o.OutcomeDescription,
					OutcomeTimeFrame:   o.OutcomeTimeFrame,
				})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialOutcome{}, rows); err != nil {
				return fmt.Errorf("replace trial_outcomes: %w", err)
			}
		}

		if rec.Locations != nil {
			rows := make([]models.TrialLocation, 0, len(rec.Locations))
			for _, l := range rec.Locations {
				rows = append(rows, models.TrialLocation{
					NCTID:                rec.NCTID,
					FacilityName:         l.FacilityName,
					FacilityAddress:      l.FacilityAddress,
					FacilityCity:         l.FacilityCity,
					FacilityState:        l.FacilityState,
					FacilityZip:          l.FacilityZip,
					FacilityCountry:      l.FacilityCountry,
					FacilityContactName:  l.FacilityContactName,
					FacilityContactPhone: l.FacilityContactPhone,
					FacilityContactEmail: l.FacilityContactEmail,
				})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialLocation{}, rows); err != nil {
				return fmt.Errorf("replace trial_locations: %w", err)
			}
		}

		if rec.Contacts != nil {
			rows := make([]models.TrialContact, 0, len(rec.Contacts))
			for _, c := range rec.Contacts {
				rows = append(rows, models.TrialContact{
					NCTID:       rec.NCTID,
					ContactType: c.ContactType,
					Name:        c.Name,
					Role:        c.Role,
					Affiliation: c.Affiliation,
					Phone:       c.Phone,
					Email:       c.Email,
				})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialContact{}, rows); err != nil {
				return fmt.Errorf("replace trial_contacts: %w", err)
			}
		}

		if rec.Conditions != nil {
			rows := make([]models.TrialCondition, 0, len(rec.Conditions))
			for _, c := range rec.Conditions {
				rows = append(rows, models.TrialCondition{NCTID: rec.NCTID, ConditionName: c})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialCondition{}, rows); err != nil {
				return fmt.Errorf("replace trial_conditions: %w", err)
			}
		}

		if rec.Keywords != nil {
			rows := make([]models.TrialKeyword, 0, len(rec.Keywords))
			for _, k := range rec.Keywords {
				rows = append(rows, models.TrialKeyword{NCTID: rec.NCTID, Keyword: k})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialKeyword{}, rows); err != nil {
				return fmt.Errorf("replace trial_keywords: %w", err)
			}
		}

		if rec.Interventions != nil {
			rows := make([]models.TrialIntervention, 0, len(rec.Interventions))
			for _, i := range rec.Interventions {
				rows = append(rows, models.TrialIntervention{
					NCTID:            rec.NCTID,
					InterventionName: i.InterventionName,
					InterventionType: i.InterventionType,
					Description:      i.Description,
				})
			}
			if err := replaceRows(tx, rec.NCTID, &models.TrialIntervention{}, rows); err != nil {
				return fmt.Errorf("replace trial_interventions: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		log.Error("Trial-Upsert fehlgeschlagen", zap.Error(err))
		return err
	}
	log.Debug("Trial erfolgreich geschrieben")
	return nil
}

// replaceRows löscht alle Zeilen einer Untergruppe für die NCT-ID und fügt die neuen
// gesammelt wieder ein. Eine leere (aber gelieferte) Liste löscht die Gruppe komplett.
func replaceRows[T any](tx *gorm.DB, nctID string, model *T, rows []T) error {
	if err := tx.Where("nct_id = ?", nctID).Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// GetTrial lädt einen Trial inklusive aller Untergruppen.
func (s *IngestService) GetTrial(ctx context.Context, nctID string) (*models.Trial, error) {
	var trial models.Trial
	err := s.DB.WithContext(ctx).
		Preload("Description").
		Preload("Eligibility").
		Preload("ArmsInterventions").
		Preload("Outcomes").
		Preload("Locations").
		Preload("Contacts").
		Preload("Conditions").
		Preload("Keywords").
		Preload("Interventions").
		Where("nct_id = ?", nctID).
		First(&trial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTrialNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trial, nil
}

// DeleteTrial entfernt einen Trial samt aller abhängigen Zeilen. Wird nur durch
// expliziten Operator-Aufruf ausgelöst, nie automatisch. Die Kinder werden in
// derselben Transaktion gelöscht; der ON DELETE CASCADE der Datenbank deckt
// zusätzlich direkte Löschungen an der trials-Tabelle vorbei am Service ab.
func (s *IngestService) DeleteTrial(ctx context.Context, nctID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trial models.Trial
		if err := tx.Where("nct_id = ?", nctID).First(&trial).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTrialNotFound
			}
			return err
		}

		for _, child := range []interface{}{
			&models.TrialDescription{}, &models.TrialEligibility{},
			&models.TrialArmIntervention{}, &models.TrialOutcome{},
			&models.TrialLocation{}, &models.TrialContact{},
			&models.TrialCondition{}, &models.TrialKeyword{},
			&models.TrialIntervention{},
		} {
			if err := tx.Where("nct_id = ?", nctID).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&trial).Error
	})
}

// recordToTrial überträgt die Stammdaten-Felder eines TrialRecord in das Trial-Modell.
func recordToTrial(rec *models.TrialRecord) *models.Trial {
	return &models.Trial{
		NCTID:                 rec.NCTID,
		ProtocolSectionID:     rec.ProtocolSectionID,
		OrganizationName:      rec.OrganizationName,
		OrganizationType:      rec.OrganizationType,
		BriefTitle:            rec.BriefTitle,
		OfficialTitle:         rec.OfficialTitle,
		Status:                rec.Status,
		Phase:                 rec.Phase,
		StudyType:             rec.StudyType,
		EnrollmentCount:       rec.EnrollmentCount,
		EnrollmentType:        rec.EnrollmentType,
		StartDate:             rec.StartDate,
		CompletionDate:        rec.CompletionDate,
		PrimaryCompletionDate: rec.PrimaryCompletionDate,
		IsFDARegulatedDrug:    rec.IsFDARegulatedDrug,
		IsFDARegulatedDevice:  rec.IsFDARegulatedDevice,
		IsUnapprovedDevice:    rec.IsUnapprovedDevice,
		IsPPSD:                rec.IsPPSD,
		IsUSExport:            rec.IsUSExport,
	}
}

func nctID(rec *models.TrialRecord) string {
	if rec == nil {
		return ""
	}
	return rec.NCTID
}
