package models

import (
	"fmt"
	"time"
)

// Lead statuses and priorities understood by the lead store.
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusProposal    = "proposal"
	LeadStatusNegotiation = "negotiation"
	LeadStatusWon         = "won"
	LeadStatusLost        = "lost"

	LeadPriorityLow    = "low"
	LeadPriorityMedium = "medium"
	LeadPriorityHigh   = "high"
	LeadPriorityUrgent = "urgent"
)

// LeadSourceDiscovery marks leads promoted from the discovery staging area.
const LeadSourceDiscovery = "discovery"

// LeadInput carries the fields accepted by the lead store when creating a lead.
type LeadInput struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Source       string            `json:"source"`
	Status       string            `json:"status"`
	Priority     string            `json:"priority"`
	AssignedUser *string           `json:"assigned_user,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Lead is a row in the authoritative lead store.
type Lead struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Source       string            `json:"source"`
	Status       string            `json:"status"`
	Priority     string            `json:"priority"`
	AssignedUser *string           `json:"assigned_user,omitempty"`
	Tags         []string          `json:"tags"`
	Metadata     map[string]string `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ValidStatus reports whether status is a known lead status.
func ValidStatus(status string) bool {
	switch status {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposal,
		LeadStatusNegotiation, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

// ValidPriority reports whether priority is a known lead priority.
func ValidPriority(priority string) bool {
	switch priority {
	case LeadPriorityLow, LeadPriorityMedium, LeadPriorityHigh, LeadPriorityUrgent:
		return true
	}
	return false
}

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}
