package models

// TrialCondition ist eine untersuchte Erkrankung/Indikation einer Studie.
type TrialCondition struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	NCTID         string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	ConditionName string `json:"condition_name" gorm:"not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (TrialCondition) TableName() string {
	return "trial_conditions"
}
