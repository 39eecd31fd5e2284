package models

import (
	"encoding/json"
	"strings"
)

// Candidate is a raw extractor result before scoring, deduplication and staging.
// Every field is optional; an empty string means the extractor found nothing.
type Candidate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Website  string `json:"website,omitempty"`
	Location string `json:"location,omitempty"`
	Title    string `json:"title,omitempty"`
}

// HasEmail reports whether the candidate carries a non-blank email.
func (c Candidate) HasEmail() bool {
	return strings.TrimSpace(c.Email) != ""
}

// Raw returns the verbatim JSON encoding of the candidate for audit storage.
func (c Candidate) Raw() json.RawMessage {
	// Marshalling a struct of strings cannot fail.
	b, _ := json.Marshal(c)
	return b
}
