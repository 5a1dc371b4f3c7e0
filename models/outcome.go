package models

import "time"

// Endpunkt-Typen, wie sie in trial_outcomes.outcome_type gespeichert werden.
const (
	OutcomePrimary   = "Primary"
	OutcomeSecondary = "Secondary"
)

// TrialOutcome modelliert einen primären oder sekundären Endpunkt einer Studie.
type TrialOutcome struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID              string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	OutcomeType        string `json:"outcome_type" gorm:"index"`
	OutcomeMeasure     string `json:"outcome_measure,omitempty" gorm:"type:text"`
	OutcomeDescription string `json:"outcome_description,omitempty" gorm:"type:text"`
	OutcomeTimeFrame   string `json:"outcome_time_frame,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialOutcome) TableName() string {
	return "trial_outcomes"
}
