package models

import "time"

// TrialEligibility hält die Ein- und Ausschlusskriterien einer Studie
// (maximal eine Zeile pro Trial).
type TrialEligibility struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID             string `json:"nct_id" gorm:"column:nct_id;uniqueIndex;not null"`
	InclusionCriteria string `json:"inclusion_criteria,omitempty" gorm:"type:text"`
	ExclusionCriteria string `json:"exclusion_criteria,omitempty" gorm:"type:text"`
	MinimumAge        string `json:"minimum_age,omitempty"`
	MaximumAge        string `json:"maximum_age,omitempty"`
	Gender            string `json:"gender,omitempty"`
	HealthyVolunteers *bool  `json:"healthy_volunteers,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialEligibility) TableName() string {
	return "trial_eligibility"
}
