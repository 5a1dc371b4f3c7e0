package models

import (
	"time"
)

// Trial repräsentiert die Stammdaten einer klinischen Studie (eine Zeile pro NCT-ID).
// Alle abhängigen Tabellen hängen per nct_id an dieser Tabelle; beim Löschen eines
// Trials werden sie kaskadierend mitgelöscht.
type Trial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Externe Registry-ID, unveränderlich nach dem ersten Insert.
	NCTID             string `json:"nct_id" gorm:"column:nct_id;uniqueIndex;not null"`
	ProtocolSectionID string `json:"protocol_section_id,omitempty"`

	OrganizationName string `json:"organization_name,omitempty" gorm:"index"`
	OrganizationType string `json:"organization_type,omitempty"`

	BriefTitle    string `json:"brief_title"`
	OfficialTitle string `json:"official_title,omitempty" gorm:"type:text"`

	// Freitext-Enumerationen der Registry (z.B. RECRUITING, PHASE_3); werden beim
	// Schreiben nicht validiert, unbekannte Werte meldet der Quality Checker.
	Status    string `json:"status" gorm:"index"`
	Phase     string `json:"phase,omitempty" gorm:"index"`
	StudyType string `json:"study_type,omitempty" gorm:"index"`

	EnrollmentCount *int   `json:"enrollment_count,omitempty"`
	EnrollmentType  string `json:"enrollment_type,omitempty"`

	StartDate             *time.Time `json:"start_date,omitempty" gorm:"index"`
	CompletionDate        *time.Time `json:"completion_date,omitempty" gorm:"index"`
	PrimaryCompletionDate *time.Time `json:"primary_completion_date,omitempty"`

	IsFDARegulatedDrug   *bool `json:"is_fda_regulated_drug,omitempty" gorm:"column:is_fda_regulated_drug"`
	IsFDARegulatedDevice *bool `json:"is_fda_regulated_device,omitempty" gorm:"column:is_fda_regulated_device"`
	IsUnapprovedDevice   *bool `json:"is_unapproved_device,omitempty" gorm:"column:is_unapproved_device"`
	IsPPSD               *bool `json:"is_ppsd,omitempty" gorm:"column:is_ppsd"`
	IsUSExport           *bool `json:"is_us_export,omitempty" gorm:"column:is_us_export"`

	// Abhängige Daten (1:1 bzw. 1:N), gejoint über nct_id.
	Description       *TrialDescription      `json:"description,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Eligibility       *TrialEligibility      `json:"eligibility,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ArmsInterventions []TrialArmIntervention `json:"arms_interventions,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Outcomes          []TrialOutcome         `json:"outcomes,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Locations         []TrialLocation        `json:"locations,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Contacts          []TrialContact         `json:"contacts,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Conditions        []TrialCondition       `json:"conditions,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Keywords          []TrialKeyword         `json:"keywords,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Interventions     []TrialIntervention    `json:"interventions,omitempty" gorm:"foreignKey:NCTID;references:NCTID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName gibt explizit den Tabellennamen an.
func (Trial) TableName() string {
	return "trials"
}
