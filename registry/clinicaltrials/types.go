package clinicaltrials

import "time"

// SearchResponse ist die Top-Level-Struktur der /studies-Antwort der v2-API.
type SearchResponse struct {
	Studies       []Study `json:"studies"`
	NextPageToken string  `json:"nextPageToken"`
}

// Study ist ein einzelner Treffer; alle relevanten Daten stehen in der protocolSection.
type Study struct {
	ProtocolSection ProtocolSection `json:"protocolSection"`
}

// ProtocolSection bündelt die Module eines Studieneintrags der v2-API.
type ProtocolSection struct {
	Identification    IdentificationModule    `json:"identificationModule"`
	Status            StatusModule            `json:"statusModule"`
	Description       DescriptionModule       `json:"descriptionModule"`
	Design            DesignModule            `json:"designModule"`
	Oversight         OversightModule         `json:"oversightModule"`
	Eligibility       EligibilityModule       `json:"eligibilityModule"`
	ArmsInterventions ArmsInterventionsModule `json:"armsInterventionsModule"`
	Outcomes          OutcomesModule          `json:"outcomesModule"`
	ContactsLocations ContactsLocationsModule `json:"contactsLocationsModule"`
	Conditions        ConditionsModule        `json:"conditionsModule"`
}

type IdentificationModule struct {
	NCTID          string `json:"nctId"`
	OrgStudyIDInfo struct {
		ID string `json:"id"`
	} `json:"orgStudyIdInfo"`
	Organization struct {
		FullName string `json:"fullName"`
		Class    string `json:"class"`
	} `json:"organization"`
	BriefTitle    string `json:"briefTitle"`
	OfficialTitle string `json:"officialTitle"`
}

type StatusModule struct {
	OverallStatus               string     `json:"overallStatus"`
	StartDateStruct             DateStruct `json:"startDateStruct"`
	CompletionDateStruct        DateStruct `json:"completionDateStruct"`
	PrimaryCompletionDateStruct DateStruct `json:"primaryCompletionDateStruct"`
}

type DateStruct struct {
	Date string `json:"date"`
}

type DescriptionModule struct {
	BriefSummary        string `json:"briefSummary"`
	DetailedDescription string `json:"detailedDescription"`
}

type DesignModule struct {
	StudyType      string   `json:"studyType"`
	Phases         []string `json:"phases"`
	EnrollmentInfo struct {
		Count int    `json:"count"`
		Type  string `json:"type"`
	} `json:"enrollmentInfo"`
}

type OversightModule struct {
	IsFDARegulatedDrug   *bool `json:"isFdaRegulatedDrug"`
	IsFDARegulatedDevice *bool `json:"isFdaRegulatedDevice"`
	IsUnapprovedDevice   *bool `json:"isUnapprovedDevice"`
	IsPPSD               *bool `json:"isPpsd"`
	IsUSExport           *bool `json:"isUsExport"`
}

type EligibilityModule struct {
	EligibilityCriteria string `json:"eligibilityCriteria"`
	MinimumAge          string `json:"minimumAge"`
	MaximumAge          string `json:"maximumAge"`
	Sex                 string `json:"sex"`
	HealthyVolunteers   *bool  `json:"healthyVolunteers"`
}

type ArmsInterventionsModule struct {
	ArmGroups     []ArmGroup     `json:"armGroups"`
	Interventions []Intervention `json:"interventions"`
}

type ArmGroup struct {
	Label             string   `json:"label"`
	Type              string   `json:"type"`
	Description       string   `json:"description"`
	InterventionNames []string `json:"interventionNames"`
}

type Intervention struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ArmGroupLabels []string `json:"armGroupLabels"`
}

type OutcomesModule struct {
	PrimaryOutcomes   []Outcome `json:"primaryOutcomes"`
	SecondaryOutcomes []Outcome `json:"secondaryOutcomes"`
}

type Outcome struct {
	Measure     string `json:"measure"`
	Description string `json:"description"`
	TimeFrame   string `json:"timeFrame"`
}

type ContactsLocationsModule struct {
	CentralContacts  []CentralContact  `json:"centralContacts"`
	OverallOfficials []OverallOfficial `json:"overallOfficials"`
	Locations        []Location        `json:"locations"`
}

type CentralContact struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type OverallOfficial struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation"`
	Role        string `json:"role"`
}

type Location struct {
	Facility string `json:"facility"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

type ConditionsModule struct {
	Conditions []string `json:"conditions"`
	Keywords   []string `json:"keywords"`
}

// Hilfsfunktion zum sicheren Parsen der Register-Daten ("2024-05-17" oder "2024-05").
func parseRegistryDate(dateStr string) *time.Time {
	layouts := []string{"2006-01-02", "2006-01", "2006"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, dateStr)
		if err == nil {
			return &t
		}
	}
	return nil
}
