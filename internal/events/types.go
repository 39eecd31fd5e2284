package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream discovery events are appended to.
const StreamName = "lead-discovery-events"

// EventType names a discovery lifecycle event.
type EventType string

const (
	DiscoveryRunCompleted EventType = "DISCOVERY_RUN_COMPLETED"
	LeadImported          EventType = "LEAD_IMPORTED"
	LeadRejected          EventType = "LEAD_REJECTED"
)

// DiscoveryEvent is the envelope written to the stream.
type DiscoveryEvent struct {
	EventID          uuid.UUID `json:"event_id"`
	EventType        EventType `json:"event_type"`
	Timestamp        time.Time `json:"timestamp"`
	SourceID         string    `json:"source_id,omitempty"`
	DiscoveredLeadID string    `json:"discovered_lead_id,omitempty"`
	LeadID           string    `json:"lead_id,omitempty"`
	Payload          any       `json:"payload,omitempty"`
}

// RunCompletedPayload summarises a finished discovery run.
type RunCompletedPayload struct {
	Discovered int       `json:"discovered"`
	Staged     int       `json:"staged"`
	Skipped    int       `json:"skipped"`
	NextCrawl  time.Time `json:"next_crawl"`
}

// subject returns the id most useful for log correlation.
func (e DiscoveryEvent) subject() string {
	if e.DiscoveredLeadID != "" {
		return e.DiscoveredLeadID
	}
	return e.SourceID
}
