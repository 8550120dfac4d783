// Package models defines the core domain models for the Company entity.
// It includes definitions for Company, CompanyCreate and CompanyUpdate.
package models

import (
	"time"
)

// CompanyGUIDPrefix tags every company identifier.
const CompanyGUIDPrefix = "CP"

// Company defines the domain model for a company entity.
type Company struct {
	// GUID is the prefixed, immutable identifier of the company.
	GUID string
	// Name is the optional display name.
	Name *string
	// ProcessorKey is the credential used with the payment processor.
	ProcessorKey string
	// APIKey is the credential the company uses to call this service.
	APIKey string
	// Deleted marks a soft-deleted company.
	Deleted bool
	// CreatedAt records the timestamp when the company was created.
	CreatedAt time.Time
	// UpdatedAt records the timestamp when the company was last updated.
	UpdatedAt time.Time
}

// CompanyCreate carries the caller supplied fields of a new company.
// APIKey is generated when left empty.
type CompanyCreate struct {
	Name         *string
	ProcessorKey string
	APIKey       string
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	// GUID identifies the company to update.
	GUID string
	// Name is the new display name.
	Name *string
	// ProcessorKey is the new processor credential.
	ProcessorKey *string
	// APIKey is the new API key.
	APIKey *string
}
