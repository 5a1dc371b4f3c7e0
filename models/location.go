package models

import "time"

// TrialLocation modelliert ein Studienzentrum inklusive Kontaktdaten der Einrichtung.
type TrialLocation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	NCTID                string `json:"nct_id" gorm:"column:nct_id;index;not null"`
	FacilityName         string `json:"facility_name,omitempty"`
	FacilityAddress      string `json:"facility_address,omitempty"`
	FacilityCity         string `json:"facility_city,omitempty"`
	FacilityState        string `json:"facility_state,omitempty"`
	FacilityZip          string `json:"facility_zip,omitempty"`
	FacilityCountry      string `json:"facility_country,omitempty" gorm:"index"`
	FacilityContactName  string `json:"facility_contact_name,omitempty"`
	FacilityContactPhone string `json:"facility_contact_phone,omitempty"`
	FacilityContactEmail string `json:"facility_contact_email,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrialLocation) TableName() string {
	return "trial_locations"
}
