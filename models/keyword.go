package models

// TrialKeyword ist ein Schlagwort, unter dem eine Studie gelistet ist.
type TrialKeyword struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	NCTID   string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	Keyword string `json:"keyword" gorm:"not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (TrialKeyword) TableName() string {
	return "trial_keywords"
}
