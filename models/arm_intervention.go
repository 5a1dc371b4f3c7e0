package models

import "time"

// TrialArmIntervention modelliert einen Studienarm bzw. dessen Zuordnung zu einer
// Intervention, wie von der Registry im armsInterventionsModule geliefert.
type TrialArmIntervention struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID                   string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	ArmGroupLabel           string `json:"arm_group_label,omitempty"`
	ArmGroupType            string `json:"arm_group_type,omitempty"`
	ArmGroupDescription     string `json:"arm_group_description,omitempty" gorm:"type:text"`
	InterventionName        string `json:"intervention_name,omitempty"`
	InterventionType        string `json:"intervention_type,omitempty"`
	InterventionDescription string `json:"intervention_description,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialArmIntervention) TableName() string {
	return "trial_arms_interventions"
}
