package models

import "time"

// TrialRecord ist das denormalisierte Eingabeformat für die Ingestion: ein Datensatz,
// wie ihn der Registry-Client (oder ein API-Aufrufer) liefert. Pflicht ist nur die
// NCT-ID; alle Untergruppen sind optional und werden beim Upsert komplett ersetzt.
type TrialRecord struct {
	NCTID             string `json:"nct_id" binding:"required"`
	ProtocolSectionID string `json:"protocol_section_id,omitempty"`

	OrganizationName string `json:"organization_name,omitempty"`
	OrganizationType string `json:"organization_type,omitempty"`

	BriefTitle    string `json:"brief_title,omitempty"`
	OfficialTitle string `json:"official_title,omitempty"`
	Status        string `json:"status,omitempty"`
	Phase         string `json:"phase,omitempty"`
	StudyType     string `json:"study_type,omitempty"`

	EnrollmentCount *int   `json:"enrollment_count,omitempty"`
	EnrollmentType  string `json:"enrollment_type,omitempty"`

	StartDate             *time.Time `json:"start_date,omitempty"`
	CompletionDate        *time.Time `json:"completion_date,omitempty"`
	PrimaryCompletionDate *time.Time `json:"primary_completion_date,omitempty"`

	IsFDARegulatedDrug   *bool `json:"is_fda_regulated_drug,omitempty"`
	IsFDARegulatedDevice *bool `json:"is_fda_regulated_device,omitempty"`
	IsUnapprovedDevice   *bool `json:"is_unapproved_device,omitempty"`
	IsPPSD               *bool `json:"is_ppsd,omitempty"`
	IsUSExport           *bool `json:"is_us_export,omitempty"`

	// 1:1-Untergruppen
	Description *DescriptionRecord `json:"description,omitempty"`
	Eligibility *EligibilityRecord `json:"eligibility,omitempty"`

	// 1:N-Untergruppen
	ArmsInterventions []ArmInterventionRecord `json:"arms_interventions,omitempty"`
	Outcomes          []OutcomeRecord         `json:"outcomes,omitempty"`
	Locations         []LocationRecord        `json:"locations,omitempty"`
	Contacts          []ContactRecord         `json:"contacts,omitempty"`
	Interventions     []InterventionRecord    `json:"interventions,omitempty"`
	Conditions        []string                `json:"conditions,omitempty"`
	Keywords          []string                `json:"keywords,omitempty"`
}

// DescriptionRecord ist die Beschreibungs-Untergruppe eines TrialRecord.
type DescriptionRecord struct {
	BriefSummary        string `json:"brief_summary,omitempty"`
	DetailedDescription string `json:"detailed_description,omitempty"`
}

// EligibilityRecord ist die Eligibility-Untergruppe eines TrialRecord.
type EligibilityRecord struct {
	InclusionCriteria string `json:"inclusion_criteria,omitempty"`
	ExclusionCriteria string `json:"exclusion_criteria,omitempty"`
	MinimumAge        string `json:"minimum_age,omitempty"`
	MaximumAge        string `json:"maximum_age,omitempty"`
	Gender            string `json:"gender,omitempty"`
	HealthyVolunteers *bool  `json:"healthy_volunteers,omitempty"`
}

// ArmInterventionRecord ist ein Eintrag der Arms/Interventions-Untergruppe.
type ArmInterventionRecord struct {
	ArmGroupLabel           string `json:"arm_group_label,omitempty"`
	ArmGroupType            string `json:"arm_group_type,omitempty"`
	ArmGroupDescription     string `json:"arm_group_description,omitempty"`
	InterventionName        string `json:"intervention_name,omitempty"`
	InterventionType        string `json:"intervention_type,omitempty"`
	InterventionDescription string `json:"intervention_description,omitempty"`
}

// OutcomeRecord ist ein Endpunkt-Eintrag (Primary/Secondary).
type OutcomeRecord struct {
	OutcomeType        string `json:"outcome_type"`
	OutcomeMeasure     string `json:"outcome_measure,omitempty"`
	OutcomeDescription string `json:"outcome_description,omitempty"`
	OutcomeTimeFrame   string `json:"outcome_time_frame,omitempty"`
}

// LocationRecord ist ein Studienzentrum-Eintrag.
type LocationRecord struct {
	FacilityName         string `json:"facility_name,omitempty"`
	FacilityAddress      string `json:"facility_address,omitempty"`
	FacilityCity         string `json:"facility_city,omitempty"`
	FacilityState        string `json:"facility_state,omitempty"`
	FacilityZip          string `json:"facility_zip,omitempty"`
	FacilityCountry      string `json:"facility_country,omitempty"`
	FacilityContactName  string `json:"facility_contact_name,omitempty"`
	FacilityContactPhone string `json:"facility_contact_phone,omitempty"`
	FacilityContactEmail string `json:"facility_contact_email,omitempty"`
}

// ContactRecord ist eine zentrale Ansprechperson (primary/backup/official).
type ContactRecord struct {
	ContactType string `json:"contact_type"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// InterventionRecord ist ein Interventions-Eintrag.
type InterventionRecord struct {
	InterventionName string `json:"intervention_name"`
	InterventionType string `json:"intervention_type,omitempty"`
	Description      string `json:"description,omitempty"`
}
