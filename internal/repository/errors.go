// Package repository implements the Postgres stores for discovery sources,
// staged leads and leads.
package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a row with the requested id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict is returned when a status update finds the row no longer pending.
	ErrStatusConflict = errors.New("status conflict")
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// checkID reports a malformed id as ErrNotFound. Every id column is a UUID, and
// Postgres would otherwise reject the query with invalid_text_representation.
func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

const (
	sortAsc  = "ASC"
	sortDesc = "DESC"
)

// orderBy builds an ORDER BY clause from a whitelisted column and direction.
func orderBy(sortBy, sortOrder string, allowed map[string]bool, fallback, fallbackOrder string) string {
	if !allowed[sortBy] {
		sortBy = fallback
	}
	order := sortOrder
	switch order {
	case "asc", "ASC":
		order = sortAsc
	case "desc", "DESC":
		order = sortDesc
	default:
		order = fallbackOrder
	}
	return " ORDER BY " + sortBy + " " + order
}
