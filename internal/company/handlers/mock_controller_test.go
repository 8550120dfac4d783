package handlers

import (
	"context"

	"github.com/gartstein/billy/internal/company/models"
	"github.com/stretchr/testify/mock"
)

type MockCompanyController struct {
	mock.Mock
}

func (m *MockCompanyController) CreateCompany(ctx context.Context, company *models.CompanyCreate) (*models.Company, error) {
	args := m.Called(ctx, company)
	if c, ok := args.Get(0).(*models.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyController) GetCompany(ctx context.Context, guid string, includeDeleted bool) (*models.Company, error) {
	args := m.Called(ctx, guid, includeDeleted)
	if c, ok := args.Get(0).(*models.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyController) GetCompanyByAPIKey(ctx context.Context, apiKey string) (*models.Company, error) {
	args := m.Called(ctx, apiKey)
	if c, ok := args.Get(0).(*models.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyController) ListCompanies(ctx context.Context, includeDeleted bool) ([]*models.Company, error) {
	args := m.Called(ctx, includeDeleted)
	if c, ok := args.Get(0).([]*models.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyController) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) (*models.Company, error) {
	args := m.Called(ctx, update)
	if c, ok := args.Get(0).(*models.Company); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCompanyController) DeleteCompany(ctx context.Context, guid string) error {
	args := m.Called(ctx, guid)
	return args.Error(0)
}
