package models

import "time"

// TrialIntervention modelliert eine einzelne Intervention (Medikament, Prozedur, Gerät)
// unabhängig von der Arm-Zuordnung in trial_arms_interventions.
type TrialIntervention struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID            string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	InterventionName string `json:"intervention_name" gorm:"not null"`
	InterventionType string `json:"intervention_type,omitempty" gorm:"index"`
	Description      string `json:"description,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialIntervention) TableName() string {
	return "trial_interventions"
}
