package clinicaltrials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"trial-hand/config"
	"trial-hand/models"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Fetcher implementiert das Registry-Interface für die ClinicalTrials.gov v2-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen ClinicalTrials.gov Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Registers zurück.
func (f *Fetcher) Name() string {
	return "clinicaltrials"
}

// Search führt die Volltext-Suche auf ClinicalTrials.gov aus.
func (f *Fetcher) Search(ctx context.Context, query string, maxResults int) ([]*models.TrialRecord, error) {
	log := f.Logger.With(zap.String("query", query))
	log.Info("Starte Suche auf ClinicalTrials.gov")

	pageSize := maxResults
	if pageSize <= 0 || pageSize > f.Config.RegistryPageSize {
		// API-Limit pro Seite ist 100
		pageSize = f.Config.RegistryPageSize
	}

	searchURL := fmt.Sprintf("%s/studies?query.term=%s&pageSize=%d",
		f.Config.RegistryBaseURL, url.QueryEscape(query), pageSize)
	log.Debug("Rufe Registry-API auf", zap.String("url", searchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry search returned status %d", resp.StatusCode)
	}

	var searchResponse SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResponse); err != nil {
		return nil, err
	}

	var records []*models.TrialRecord
	for i := range searchResponse.Studies {
		records = append(records, mapStudyToRecord(&searchResponse.Studies[i].ProtocolSection))
	}

	log.Info("Suche auf ClinicalTrials.gov abgeschlossen", zap.Int("found_trials", len(records)))
	return records, nil
}

// Get holt einen einzelnen Trial anhand seiner NCT-ID.
func (f *Fetcher) Get(ctx context.Context, nctID string) (*models.TrialRecord, error) {
	getURL := fmt.Sprintf("%s/studies/%s", f.Config.RegistryBaseURL, url.PathEscape(nctID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("trial %s not found in registry", nctID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry get returned status %d", resp.StatusCode)
	}

	var study Study
	if err := json.NewDecoder(resp.Body).Decode(&study); err != nil {
		return nil, err
	}
	return mapStudyToRecord(&study.ProtocolSection), nil
}

// mapStudyToRecord konvertiert eine protocolSection in unseren internen TrialRecord.
func mapStudyToRecord(ps *ProtocolSection) *models.TrialRecord {
	rec := &models.TrialRecord{
		NCTID:             ps.Identification.NCTID,
		ProtocolSectionID: ps.Identification.OrgStudyIDInfo.ID,
		OrganizationName:  ps.Identification.Organization.FullName,
		OrganizationType:  ps.Identification.Organization.Class,
		BriefTitle:        ps.Identification.BriefTitle,
		OfficialTitle:     ps.Identification.OfficialTitle,
		Status:            ps.Status.OverallStatus,
		Phase:             strings.Join(ps.Design.Phases, "/"),
		StudyType:         ps.Design.StudyType,
		EnrollmentType:    ps.Design.EnrollmentInfo.Type,

		StartDate:             parseRegistryDate(ps.Status.StartDateStruct.Date),
		CompletionDate:        parseRegistryDate(ps.Status.CompletionDateStruct.Date),
		PrimaryCompletionDate: parseRegistryDate(ps.Status.PrimaryCompletionDateStruct.Date),

		IsFDARegulatedDrug:   ps.Oversight.IsFDARegulatedDrug,
		IsFDARegulatedDevice: ps.Oversight.IsFDARegulatedDevice,
		IsUnapprovedDevice:   ps.Oversight.IsUnapprovedDevice,
		IsPPSD:               ps.Oversight.IsPPSD,
		IsUSExport:           ps.Oversight.IsUSExport,

		Conditions: ps.Conditions.Conditions,
		Keywords:   ps.Conditions.Keywords,
	}

	if ps.Design.EnrollmentInfo.Count > 0 {
		count := ps.Design.EnrollmentInfo.Count
		rec.EnrollmentCount = &count
	}

	if ps.Description.BriefSummary != "" || ps.Description.DetailedDescription != "" {
		rec.Description = &models.DescriptionRecord{
			BriefSummary:        ps.Description.BriefSummary,
			DetailedDescription: ps.Description.DetailedDescription,
		}
	}

	inclusion, exclusion := splitEligibilityCriteria(ps.Eligibility.EligibilityCriteria)
	if inclusion != "" || exclusion != "" || ps.Eligibility.MinimumAge != "" || ps.Eligibility.MaximumAge != "" {
		rec.Eligibility = &models.EligibilityRecord{
			InclusionCriteria: inclusion,
			ExclusionCriteria: exclusion,
			MinimumAge:        ps.Eligibility.MinimumAge,
			MaximumAge:        ps.Eligibility.MaximumAge,
			Gender:            ps.Eligibility.Sex,
			HealthyVolunteers: ps.Eligibility.HealthyVolunteers,
		}
	}

	for _, arm := range ps.ArmsInterventions.ArmGroups {
		rec.ArmsInterventions = append(rec.ArmsInterventions, models.ArmInterventionRecord{
			ArmGroupLabel:       arm.Label,
			ArmGroupType:        arm.Type,
			ArmGroupDescription: arm.Description,
			InterventionName:    strings.Join(arm.InterventionNames, "; "),
		})
	}
	for _, iv := range ps.ArmsInterventions.Interventions {
		rec.ArmsInterventions = append(rec.ArmsInterventions, models.ArmInterventionRecord{
			ArmGroupLabel:           strings.Join(iv.ArmGroupLabels, "; "),
			InterventionName:        iv.Name,
			InterventionType:        iv.Type,
			InterventionDescription: iv.Description,
		})
		rec.Interventions = append(rec.Interventions, models.InterventionRecord{
			InterventionName: iv.Name,
			InterventionType: iv.Type,
			Description:      iv.Description,
		})
	}

	for _, o := range ps.Outcomes.PrimaryOutcomes {
		rec.Outcomes = append(rec.Outcomes, models.OutcomeRecord{
			OutcomeType:        models.OutcomePrimary,
			OutcomeMeasure:     o.Measure,
			OutcomeDescription: o.Description,
			OutcomeTimeFrame:   o.TimeFrame,
		})
	}
	for _, o := range ps.Outcomes.SecondaryOutcomes {
		rec.Outcomes = append(rec.Outcomes, models.OutcomeRecord{
			OutcomeType:        models.OutcomeSecondary,
			OutcomeMeasure:     o.Measure,
			OutcomeDescription: o.Description,
			OutcomeTimeFrame:   o.TimeFrame,
		})
	}

	for _, loc := range ps.ContactsLocations.Locations {
		rec.Locations = append(rec.Locations, models.LocationRecord{
			FacilityName:    loc.Facility,
			FacilityCity:    loc.City,
			FacilityState:   loc.State,
			FacilityZip:     loc.Zip,
			FacilityCountry: loc.Country,
		})
	}

	for i, c := range ps.ContactsLocations.CentralContacts {
		contactType := models.ContactPrimary
		if i > 0 {
			contactType = models.ContactBackup
		}
		rec.Contacts = append(rec.Contacts, models.ContactRecord{
			ContactType: contactType,
			Name:        c.Name,
			Role:        c.Role,
			Phone:       c.Phone,
			Email:       c.Email,
		})
	}
	for _, o := range ps.ContactsLocations.OverallOfficials {
		rec.Contacts = append(rec.Contacts, models.ContactRecord{
			ContactType: models.ContactOfficial,
			Name:        o.Name,
			Role:        o.Role,
			Affiliation: o.Affiliation,
		})
	}

	return rec
}

// splitEligibilityCriteria zerlegt den Freitext der Register-Kriterien am Marker
// "Exclusion Criteria". Fehlt der Marker, gilt der gesamte Text als Einschlusskriterien.
func splitEligibilityCriteria(text string) (inclusion, exclusion string) {
	if text == "" {
		return "", ""
	}
	if idx := strings.Index(text, "Exclusion Criteria"); idx >= 0 {
		inclusion = strings.TrimSpace(strings.ReplaceAll(text[:idx], "Inclusion Criteria:", ""))
		exclusion = strings.TrimSpace(strings.TrimPrefix(text[idx+len("Exclusion Criteria"):], ":"))
		return inclusion, exclusion
	}
	return strings.TrimSpace(text), ""
}
