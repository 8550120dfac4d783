package events

import (
	"time"

	"github.com/gartstein/billy/internal/company/models"
)

type EventType string

const (
	CompanyCreated EventType = "company_created"
	CompanyUpdated EventType = "company_updated"
	CompanyDeleted EventType = "company_deleted"
)

// Event is the message published for every company change.
type Event struct {
	Type    EventType       `json:"type"`
	Company *CompanyPayload `json:"company"`
}

// CompanyPayload is the public view of a company. Credentials are never
// published.
type CompanyPayload struct {
	GUID      string    `json:"guid"`
	Name      *string   `json:"name,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEvent builds the event for a company change.
func NewEvent(eventType EventType, company *models.Company) Event {
	return Event{
		Type: eventType,
		Company: &CompanyPayload{
			GUID:      company.GUID,
			Name:      company.Name,
			Deleted:   company.Deleted,
			CreatedAt: company.CreatedAt,
			UpdatedAt: company.UpdatedAt,
		},
	}
}
