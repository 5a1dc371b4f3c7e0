package clinicaltrials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trial-hand/config"
	"trial-hand/models"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		RegistryBaseURL:  baseURL,
		RegistryPageSize: 100,
	}
}

func sampleProtocolSection() ProtocolSection {
	ps := ProtocolSection{}
	ps.Identification.NCTID = "NCT01234567"
	ps.Identification.OrgStudyIDInfo.ID = "PROT-42"
	ps.Identification.Organization.FullName = "University Hospital"
	ps.Identification.Organization.Class = "OTHER"
	ps.Identification.BriefTitle = "Metformin in Type 2 Diabetes"
	ps.Identification.OfficialTitle = "A Randomized Trial of Metformin"

	ps.Status.OverallStatus = "RECRUITING"
	ps.Status.StartDateStruct.Date = "2023-05"
	ps.Status.CompletionDateStruct.Date = "2025-05-17"

	ps.Design.StudyType = "INTERVENTIONAL"
	ps.Design.Phases = []string{"PHASE2", "PHASE3"}
	ps.Design.EnrollmentInfo.Count = 200
	ps.Design.EnrollmentInfo.Type = "ESTIMATED"

	ps.Description.BriefSummary = "Short summary."

	ps.Eligibility.EligibilityCriteria = "Inclusion Criteria:\n- Adults over 18\n\nExclusion Criteria:\n- Pregnancy"
	ps.Eligibility.MinimumAge = "18 Years"
	ps.Eligibility.Sex = "ALL"

	ps.ArmsInterventions.ArmGroups = []ArmGroup{
		{Label: "Metformin", Type: "EXPERIMENTAL", InterventionNames: []string{"Drug: Metformin"}},
	}
	ps.ArmsInterventions.Interventions = []Intervention{
		{Type: "DRUG", Name: "Metformin", Description: "500mg twice daily", ArmGroupLabels: []string{"Metformin"}},
	}

	ps.Outcomes.PrimaryOutcomes = []Outcome{{Measure: "HbA1c change", TimeFrame: "24 weeks"}}
	ps.Outcomes.SecondaryOutcomes = []Outcome{{Measure: "Fasting glucose"}}

	ps.ContactsLocations.CentralContacts = []CentralContact{
		{Name: "Dr. Jordan Lee", Role: "CONTACT", Phone: "+1 617 555 0100", Email: "lee@example.org"},
		{Name: "Alex Kim", Role: "CONTACT"},
	}
	ps.ContactsLocations.OverallOfficials = []OverallOfficial{
		{Name: "Prof. Sam Rivera", Affiliation: "University Hospital", Role: "PRINCIPAL_INVESTIGATOR"},
	}
	ps.ContactsLocations.Locations = []Location{
		{Facility: "Main Clinic", City: "Boston", Country: "United States"},
	}

	ps.Conditions.Conditions = []string{"Type 2 Diabetes"}
	ps.Conditions.Keywords = []string{"diabetes", "metformin"}
	return ps
}

func TestMapStudyToRecord(t *testing.T) {
	ps := sampleProtocolSection()
	rec := mapStudyToRecord(&ps)

	assert.Equal(t, "NCT01234567", rec.NCTID)
	assert.Equal(t, "PROT-42", rec.ProtocolSectionID)
	assert.Equal(t, "University Hospital", rec.OrganizationName)
	assert.Equal(t, "RECRUITING", rec.Status)
	assert.Equal(t, "PHASE2/PHASE3", rec.Phase)
	assert.Equal(t, "INTERVENTIONAL", rec.StudyType)
	require.NotNil(t, rec.EnrollmentCount)
	assert.Equal(t, 200, *rec.EnrollmentCount)

	require.NotNil(t, rec.StartDate)
	assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), *rec.StartDate)
	require.NotNil(t, rec.CompletionDate)
	assert.Equal(t, time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC), *rec.CompletionDate)
	assert.Nil(t, rec.PrimaryCompletionDate)

	require.NotNil(t, rec.Description)
	assert.Equal(t, "Short summary.", rec.Description.BriefSummary)

	require.NotNil(t, rec.Eligibility)
	assert.Equal(t, "- Adults over 18", rec.Eligibility.InclusionCriteria)
	assert.Equal(t, "- Pregnancy", rec.Eligibility.ExclusionCriteria)
	assert.Equal(t, "ALL", rec.Eligibility.Gender)

	// Arm-Gruppe + Intervention landen beide in der Arms-Untergruppe.
	require.Len(t, rec.ArmsInterventions, 2)
	assert.Equal(t, "Metformin", rec.ArmsInterventions[0].ArmGroupLabel)
	assert.Equal(t, "Drug: Metformin", rec.ArmsInterventions[0].InterventionName)
	require.Len(t, rec.Interventions, 1)
	assert.Equal(t, "DRUG", rec.Interventions[0].InterventionType)

	require.Len(t, rec.Outcomes, 2)
	assert.Equal(t, models.OutcomePrimary, rec.Outcomes[0].OutcomeType)
	assert.Equal(t, models.OutcomeSecondary, rec.Outcomes[1].OutcomeType)

	require.Len(t, rec.Contacts, 3)
	assert.Equal(t, models.ContactPrimary, rec.Contacts[0].ContactType)
	assert.Equal(t, models.ContactBackup, rec.Contacts[1].ContactType)
	assert.Equal(t, models.ContactOfficial, rec.Contacts[2].ContactType)
	assert.Equal(t, "University Hospital", rec.Contacts[2].Affiliation)

	require.Len(t, rec.Locations, 1)
	assert.Equal(t, "Main Clinic", rec.Locations[0].FacilityName)

	assert.Equal(t, []string{"Type 2 Diabetes"}, rec.Conditions)
	assert.Equal(t, []string{"diabetes", "metformin"}, rec.Keywords)
}

func TestSplitEligibilityCriteria(t *testing.T) {
	inc, exc := splitEligibilityCriteria("Inclusion Criteria:\nA\n\nExclusion Criteria:\nB")
	assert.Equal(t, "A", inc)
	assert.Equal(t, "B", exc)

	inc, exc = splitEligibilityCriteria("Only inclusion text")
	assert.Equal(t, "Only inclusion text", inc)
	assert.Empty(t, exc)

	inc, exc = splitEligibilityCriteria("")
	assert.Empty(t, inc)
	assert.Empty(t, exc)
}

func TestParseRegistryDate(t *testing.T) {
	d := parseRegistryDate("2024-05-17")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), *d)

	d = parseRegistryDate("2024-05")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *d)

	assert.Nil(t, parseRegistryDate("May 2024"))
	assert.Nil(t, parseRegistryDate(""))
}

func TestSearchAgainstStubServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/studies", r.URL.Path)
		assert.Equal(t, "diabetes", r.URL.Query().Get("query.term"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))

		resp := SearchResponse{Studies: []Study{{ProtocolSection: sampleProtocolSection()}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	fetcher := NewFetcher(testConfig(srv.URL), zap.NewNop())
	records, err := fetcher.Search(context.Background(), "diabetes", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "NCT01234567", records[0].NCTID)
}

func TestGetAgainstStubServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/studies/NCT01234567" {
			require.NoError(t, json.NewEncoder(w).Encode(Study{ProtocolSection: sampleProtocolSection()}))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewFetcher(testConfig(srv.URL), zap.NewNop())

	rec, err := fetcher.Get(context.Background(), "NCT01234567")
	require.NoError(t, err)
	assert.Equal(t, "Metformin in Type 2 Diabetes", rec.BriefTitle)

	_, err = fetcher.Get(context.Background(), "NCT00000000")
	assert.Error(t, err)
}
