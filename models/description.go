package models

import "time"

// TrialDescription hält die Zusammenfassung und die ausführliche Beschreibung
// einer Studie (maximal eine Zeile pro Trial).
type TrialDescription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID               string `json:"nct_id" gorm:"column:nct_id;uniqueIndex;not null"`
	BriefSummary        string `json:"brief_summary,omitempty" gorm:"type:text"`
	DetailedDescription string `json:"detailed_description,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialDescription) TableName() string {
	return "trial_descriptions"
}
