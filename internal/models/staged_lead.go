package models

import (
	"encoding/json"
	"time"
)

// DiscoveryStatus is the review state of a staged lead.
type DiscoveryStatus string

const (
	DiscoveryPending  DiscoveryStatus = "pending"
	DiscoveryImported DiscoveryStatus = "imported"
	DiscoveryIgnored  DiscoveryStatus = "ignored"
)

// Valid reports whether s is a known discovery status.
func (s DiscoveryStatus) Valid() bool {
	switch s {
	case DiscoveryPending, DiscoveryImported, DiscoveryIgnored:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s DiscoveryStatus) Terminal() bool {
	return s == DiscoveryImported || s == DiscoveryIgnored
}

// StagedLead is an extracted, unconfirmed lead awaiting human review.
type StagedLead struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Email           string          `json:"email" db:"email"`
	Phone           string          `json:"phone" db:"phone"`
	Company         string          `json:"company" db:"company"`
	Website         string          `json:"website" db:"website"`
	Location        string          `json:"location" db:"location"`
	Title           string          `json:"title" db:"title"`
	SourceID        string          `json:"source_id" db:"source_id"`
	SourceURL       string          `json:"source_url" db:"source_url"`
	SourceType      SourceType      `json:"source_type" db:"source_type"`
	DiscoveryStatus DiscoveryStatus `json:"discovery_status" db:"discovery_status"`
	ConfidenceScore int             `json:"confidence_score" db:"confidence_score"`
	RawData         json.RawMessage `json:"raw_data" db:"raw_data"`
	ImportedLeadID  *string         `json:"imported_lead_id,omitempty" db:"imported_lead_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// NewStagedLead builds a pending staged lead from a candidate, copying provenance
// from the source that produced it.
func NewStagedLead(c Candidate, source *DiscoverySource, score int) *StagedLead {
	return &StagedLead{
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		Company:         c.Company,
		Website:         c.Website,
		Location:        c.Location,
		Title:           c.Title,
		SourceID:        source.ID,
		SourceURL:       source.SourceURL,
		SourceType:      source.SourceType,
		DiscoveryStatus: DiscoveryPending,
		ConfidenceScore: score,
		RawData:         c.Raw(),
	}
}

// StagedLeadStats summarises the staging area.
type StagedLeadStats struct {
	Total           int                     `json:"total" db:"total"`
	ByStatus        map[DiscoveryStatus]int `json:"by_status" db:"by_status"`
	AverageScore    float64                 `json:"average_score" db:"average_score"`
	ImportedPercent float64                 `json:"imported_percent" db:"imported_percent"`
}
