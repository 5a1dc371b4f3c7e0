package services

import (
	"context"

	"trial-hand/models"
)

// CountBucket ist ein Eintrag einer Verteilungsstatistik (Wert + Anzahl).
type CountBucket struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// TrialStatistics fasst die Aggregat-Kennzahlen des Datenbestands zusammen.
type TrialStatistics struct {
	TotalTrials           int64         `json:"total_trials"`
	AvgEnrollment         float64       `json:"avg_enrollment"`
	StatusDistribution    []CountBucket `json:"status_distribution"`
	PhaseDistribution     []CountBucket `json:"phase_distribution"`
	StudyTypeDistribution []CountBucket `json:"study_type_distribution"`
	TopOrganizations      []CountBucket `json:"top_organizations"`
	TopConditions         []CountBucket `json:"top_conditions"`
}

// Statistics berechnet Gesamtzahl, Verteilungen und Durchschnitts-Enrollment.
func (s *IngestService) Statistics(ctx context.Context) (*TrialStatistics, error) {
	db := s.DB.WithContext(ctx)
	stats := &TrialStatistics{}

	if err := db.Model(&models.Trial{}).Count(&stats.TotalTrials).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Trial{}).
		Select("coalesce(avg(enrollment_count), 0)").
		Scan(&stats.AvgEnrollment).Error; err != nil {
		return nil, err
	}

	for _, d := range []struct {
		column string
		dest   *[]CountBucket
	}{
		{"status", &stats.StatusDistribution},
		{"phase", &stats.PhaseDistribution},
		{"study_type", &stats.StudyTypeDistribution},
	} {
		if err := db.Model(&models.Trial{}).
			Select(d.column+" as value, count(*) as count").
			Where(d.column+" <> ''").
			Group(d.column).
			Order("count desc").
			Scan(d.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&models.Trial{}).
		Select("organization_name as value, count(*) as count").
		Where("organization_name <> ''").
		Group("organization_name").
		Order("count desc").
		Limit(10).
		Scan(&stats.TopOrganizations).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.TrialCondition{}).
		Select("condition_name as value, count(*) as count").
		Group("condition_name").
		Order("count desc").
		Limit(10).
		Scan(&stats.TopConditions).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
