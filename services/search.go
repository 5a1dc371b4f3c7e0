package services

import (
	"context"
	"time"

	"trial-hand/models"
)

// SearchFilters schränken Listen- und Suchabfragen ein. Nullwerte bedeuten "kein Filter".
type SearchFilters struct {
	Status        string     `json:"status,omitempty" form:"status"`
	Phase         string     `json:"phase,omitempty" form:"phase"`
	StudyType     string     `json:"study_type,omitempty" form:"study_type"`
	Organization  string     `json:"organization,omitempty" form:"organization"`
	StartDateFrom *time.Time `json:"start_date_from,omitempty" form:"start_date_from" time_format:"2006-01-02"`
	StartDateTo   *time.Time `json:"start_date_to,omitempty" form:"start_date_to" time_format:"2006-01-02"`
	Limit         int        `json:"limit,omitempty" form:"limit"`
	Offset        int        `json:"offset,omitempty" form:"offset"`
}

const defaultSearchLimit = 50

// ListTrials gibt Trials gefiltert und paginiert zurück, neueste Startdaten zuerst.
func (s *IngestService) ListTrials(ctx context.Context, f SearchFilters) ([]models.Trial, error) {
	query := s.DB.WithContext(ctx).Model(&models.Trial{})

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Phase != "" {
		query = query.Where("phase = ?", f.Phase)
	}
	if f.StudyType != "" {
		query = query.Where("study_type = ?", f.StudyType)
	}
	if f.Organization != "" {
		query = query.Where("lower(organization_name) LIKE lower(?)", "%"+f.Organization+"%")
	}
	if f.StartDateFrom != nil {
		query = query.Where("start_date >= ?", *f.StartDateFrom)
	}
	if f.StartDateTo != nil {
		query = query.Where("start_date <= ?", *f.StartDateTo)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query = query.Limit(limit)
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var trials []models.Trial
	if err := query.Order("start_date desc").Find(&trials).Error; err != nil {
		return nil, err
	}
	return trials, nil
}

// SearchTrials sucht den Suchbegriff in Titeln, Beschreibungen, Conditions und
// Keywords und wendet zusätzlich die Filter an. Leerer Begriff entspricht ListTrials.
func (s *IngestService) SearchTrials(ctx context.Context, term string, f SearchFilters) ([]models.Trial, error) {
	if term == "" {
		return s.ListTrials(ctx, f)
	}

	pattern := "%" + term + "%"
	query := s.DB.WithContext(ctx).Model(&models.Trial{}).
		Distinct("trials.*").
		Joins("LEFT JOIN trial_descriptions d ON trials.nct_id = d.nct_id").
		Joins("LEFT JOIN trial_conditions c ON trials.nct_id = c.nct_id").
		Joins("LEFT JOIN trial_keywords k ON trials.nct_id = k.nct_id").
		Where(`(lower(trials.brief_title) LIKE lower(?)
			OR lower(trials.official_title) LIKE lower(?)
			OR lower(d.brief_summary) LIKE lower(?)
			OR lower(d.detailed_description) LIKE lower(?)
			OR lower(c.condition_name) LIKE lower(?)
			OR lower(k.keyword) LIKE lower(?))`,
			pattern, pattern, pattern, pattern, pattern, pattern)

	if f.Status != "" {
		query = query.Where("trials.status = ?", f.Status)
	}
	if f.Phase != "" {
		query = query.Where("trials.phase = ?", f.Phase)
	}
	if f.StudyType != "" {
		query = query.Where("trials.study_type = ?", f.StudyType)
	}
	if f.Organization != "" {
		query = query.Where("lower(trials.organization_name) LIKE lower(?)", "%"+f.Organization+"%")
	}
	if f.StartDateFrom != nil {
		query = query.Where("trials.start_date >= ?", *f.StartDateFrom)
	}
	if f.StartDateTo != nil {
		query = query.Where("trials.start_date <= ?", *f.StartDateTo)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var trials []models.Trial
	if err := query.Order("trials.start_date desc").Limit(limit).Find(&trials).Error; err != nil {
		return nil, err
	}
	return trials, nil
}
