// Package controller implements the core business logic (service layer)
// for managing Company entities, orchestrating repository operations
// and sending relevant events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gartstein/billy/internal/company/db"
	e "github.com/gartstein/billy/internal/company/errors"
	"github.com/gartstein/billy/internal/company/events"
	"github.com/gartstein/billy/internal/company/models"
	"go.uber.org/zap"
)

const maxNameLength = 128

type EventProducer interface {
	Produce(eventType events.EventType, company *models.Company)
}

// Repository defines the storage interface for Company objects.
type Repository interface {
	GetCompanyByGUID(ctx context.Context, guid string, opts ...db.LookupOption) (*models.Company, error)
	GetCompanyByAPIKey(ctx context.Context, apiKey string, opts ...db.LookupOption) (*models.Company, error)
	ListCompanies(ctx context.Context, opts ...db.LookupOption) ([]*models.Company, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	Close() error
}

// CompanyService provides methods to manage companies via repository
// operations and event production.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository,
// an event producer, and a logger.
func NewCompanyService(repo Repository, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("company_service"),
	}
}

// CreateCompany validates the input, stores the company and reads it back
// in a single transaction, then triggers an event.
func (s *CompanyService) CreateCompany(ctx context.Context, company *models.CompanyCreate) (*models.Company, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company data required", e.ErrInvalidInput)
	}
	if company.ProcessorKey == "" {
		return nil, fmt.Errorf("%w: processor key required", e.ErrInvalidInput)
	}
	if company.Name != nil && utf8.RuneCountInString(*company.Name) > maxNameLength {
		return nil, fmt.Errorf("%w: name too long", e.ErrInvalidInput)
	}

	var created *models.Company
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		guid, err := tx.CreateCompany(ctx, company)
		if err != nil {
			return err
		}
		created, err = tx.GetCompanyByGUID(ctx, guid, db.MustExist())
		return err
	})
	if err != nil {
		if errors.Is(err, e.ErrInvalidInput) || errors.Is(err, e.ErrDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.Info("company created", zap.String("guid", created.GUID))
	go func() {
		s.producer.Produce(events.CompanyCreated, created)
	}()
	return created, nil
}

// GetCompany retrieves a Company by guid, returning ErrNotFound if it is
// missing or deleted and includeDeleted is false.
func (s *CompanyService) GetCompany(ctx context.Context, guid string, includeDeleted bool) (*models.Company, error) {
	opts := []db.LookupOption{db.MustExist()}
	if includeDeleted {
		opts = append(opts, db.IncludeDeleted())
	}

	company, err := s.repo.GetCompanyByGUID(ctx, guid, opts...)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// GetCompanyByAPIKey resolves the live company owning apiKey.
func (s *CompanyService) GetCompanyByAPIKey(ctx context.Context, apiKey string) (*models.Company, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key required", e.ErrInvalidInput)
	}

	company, err := s.repo.GetCompanyByAPIKey(ctx, apiKey, db.MustExist())
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company by api key: %w", err)
	}
	return company, nil
}

// ListCompanies returns companies in creation order.
func (s *CompanyService) ListCompanies(ctx context.Context, includeDeleted bool) ([]*models.Company, error) {
	var opts []db.LookupOption
	if includeDeleted {
		opts = append(opts, db.IncludeDeleted())
	}

	companies, err := s.repo.ListCompanies(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// UpdateCompany modifies the specified Company fields,
// then fetches the updated version for returning and event production.
func (s *CompanyService) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error) {
	if update == nil || update.GUID == "" {
		return nil, fmt.Errorf("%w: invalid company guid", e.ErrInvalidInput)
	}
	if update.Name != nil && utf8.RuneCountInString(*update.Name) > maxNameLength {
		return nil, fmt.Errorf("%w: name too long", e.ErrInvalidInput)
	}
	if update.ProcessorKey != nil && *update.ProcessorKey == "" {
		return nil, fmt.Errorf("%w: processor key cannot be empty", e.ErrInvalidInput)
	}
	if update.APIKey != nil && *update.APIKey == "" {
		return nil, fmt.Errorf("%w: api key cannot be empty", e.ErrInvalidInput)
	}

	var updated *models.Company
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		if err := tx.UpdateCompany(ctx, update); err != nil {
			return err
		}
		var err error
		updated, err = tx.GetCompanyByGUID(ctx, update.GUID, db.IncludeDeleted(), db.MustExist())
		return err
	})
	if err != nil {
		if errors.Is(err, e.ErrNotFound) || errors.Is(err, e.ErrDuplicateKey) {
			return nil, err
		}
		s.logger.Error("Failed to update company",
			zap.Error(err),
			zap.String("guid", update.GUID),
		)
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	go func() {
		s.producer.Produce(events.CompanyUpdated, updated)
	}()
	return updated, nil
}

// DeleteCompany soft-deletes a Company by guid and fires a deletion event.
// The row is locked while the flag is checked, so of several concurrent
// deletes only one emits an event.
func (s *CompanyService) DeleteCompany(ctx context.Context, guid string) error {
	var deleted *models.Company
	err := s.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		company, err := tx.GetCompanyByGUID(ctx, guid, db.IncludeDeleted(), db.MustExist(), db.ForUpdate())
		if err != nil {
			return err
		}
		if company.Deleted {
			return nil
		}
		if err := tx.DeleteCompany(ctx, guid); err != nil {
			return err
		}
		company.Deleted = true
		deleted = company
		return nil
	})
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if deleted == nil {
		return nil
	}

	go func() {
		s.producer.Produce(events.CompanyDeleted, deleted)
	}()
	return nil
}
