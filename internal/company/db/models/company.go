// Package models contains the storage models for the application,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	domain "github.com/gartstein/billy/internal/company/models"
	"gorm.io/plugin/soft_delete"
)

// Company represents a company row in the database.
// Deleted is a soft-delete flag: gorm hides flagged rows unless the
// query is Unscoped.
type Company struct {
	GUID         string                `gorm:"primaryKey;size:64"`
	Name         *string               `gorm:"size:128"`
	ProcessorKey string                `gorm:"size:255;not null"`
	APIKey       string                `gorm:"size:255;not null;uniqueIndex"`
	Deleted      soft_delete.DeletedAt `gorm:"softDelete:flag;not null;default:0;index"`
	CreatedAt    time.Time             `gorm:"not null"`
	UpdatedAt    time.Time             `gorm:"not null"`
}

// TableName pins the table name.
func (Company) TableName() string {
	return "companies"
}

// ToDomain converts the row into the domain model.
func (c *Company) ToDomain() *domain.Company {
	return &domain.Company{
		GUID:         c.GUID,
		Name:         c.Name,
		ProcessorKey: c.ProcessorKey,
		APIKey:       c.APIKey,
		Deleted:      c.Deleted != 0,
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
	}
}
