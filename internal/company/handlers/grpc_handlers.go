package handlers

import (
	"context"
	"errors"

	e "github.com/gartstein/billy/internal/company/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CompanyHandler provides gRPC methods for Company operations,
// mapping requests to a CompanyController interface.
type CompanyHandler struct {
	service CompanyController
	logger  *zap.Logger
}

var _ CompanyServiceServer = (*CompanyHandler)(nil)

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service CompanyController, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

// CreateCompany creates a company from {name?, processor_key, api_key?}.
func (h *CompanyHandler) CreateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	company, err := h.protoToCreate(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	created, err := h.service.CreateCompany(ctx, company)
	if err != nil {
		h.logger.Error("Create company failed", zap.Error(err))
		return nil, h.mapServiceError(err)
	}
	return h.modelToProtoWithKey(created)
}

// GetCompany fetches a company by {guid, include_deleted?}.
func (h *CompanyHandler) GetCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	guid, includeDeleted, err := h.protoToLookup(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	company, err := h.service.GetCompany(ctx, guid, includeDeleted)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.modelToProto(company)
}

// ListCompanies lists companies, optionally with deleted ones.
func (h *CompanyHandler) ListCompanies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := checkFields(req, fieldIncludeDeleted); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	includeDeleted, err := boolField(req, fieldIncludeDeleted)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	companies, err := h.service.ListCompanies(ctx, includeDeleted)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.modelsToProto(companies)
}

// UpdateCompany applies {guid, name?, processor_key?, api_key?}. Any other
// field is rejected with InvalidArgument.
func (h *CompanyHandler) UpdateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	update, err := h.protoToUpdate(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	updated, err := h.service.UpdateCompany(ctx, update)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.modelToProtoWithKey(updated)
}

// DeleteCompany soft-deletes the company named by {guid}.
func (h *CompanyHandler) DeleteCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := checkFields(req, fieldGUID); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	guid, err := requiredString(req, fieldGUID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := h.service.DeleteCompany(ctx, guid); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &structpb.Struct{}, nil
}

// GetCompanyByAPIKey resolves the caller's own company from {api_key}.
func (h *CompanyHandler) GetCompanyByAPIKey(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := checkFields(req, fieldAPIKey); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	apiKey, err := requiredString(req, fieldAPIKey)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "api key required")
	}

	company, err := h.service.GetCompanyByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "unknown api key")
		}
		return nil, h.mapServiceError(err)
	}
	return h.modelToProtoWithKey(company)
}
