package models

import "time"

// Kontakt-Typen, wie sie in trial_contacts.contact_type gespeichert werden.
const (
	ContactPrimary  = "primary"
	ContactBackup   = "backup"
	ContactOfficial = "official"
)

// TrialContact modelliert eine Ansprechperson der Studie (zentral, nicht pro Standort).
type TrialContact struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID       string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	ContactType string `json:"contact_type" gorm:"index"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialContact) TableName() string {
	return "trial_contacts"
}
