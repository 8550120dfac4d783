package handlers

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	e "github.com/gartstein/billy/internal/company/errors"
	"github.com/gartstein/billy/internal/company/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	fieldGUID           = "guid"
	fieldName           = "name"
	fieldProcessorKey   = "processor_key"
	fieldAPIKey         = "api_key"
	fieldIncludeDeleted = "include_deleted"
	fieldDeleted        = "deleted"
	fieldCreatedAt      = "created_at"
	fieldUpdatedAt      = "updated_at"
	fieldCompanies      = "companies"
)

// checkFields rejects any request field outside allowed.
func checkFields(req *structpb.Struct, allowed ...string) error {
	var unknown []string
	for name := range req.GetFields() {
		if !slices.Contains(allowed, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unexpected field(s) %s", e.ErrInvalidInput, strings.Join(unknown, ", "))
	}
	return nil
}

// stringField returns nil when the field is absent or null.
func stringField(req *structpb.Struct, name string) (*string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_StringValue:
		s := v.GetStringValue()
		return &s, nil
	case *structpb.Value_NullValue:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: field %s must be a string", e.ErrInvalidInput, name)
	}
}

func boolField(req *structpb.Struct, name string) (bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return false, nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return v.GetBoolValue(), nil
	case *structpb.Value_NullValue:
		return false, nil
	default:
		return false, fmt.Errorf("%w: field %s must be a boolean", e.ErrInvalidInput, name)
	}
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	s, err := stringField(req, name)
	if err != nil {
		return "", err
	}
	if s == nil || *s == "" {
		return "", fmt.Errorf("%w: field %s required", e.ErrInvalidInput, name)
	}
	return *s, nil
}

// protoToCreate converts a create request into a CompanyCreate.
func (h *CompanyHandler) protoToCreate(req *structpb.Struct) (*models.CompanyCreate, error) {
	if req == nil {
		return nil, errors.New("nil company data")
	}
	if err := checkFields(req, fieldName, fieldProcessorKey, fieldAPIKey); err != nil {
		return nil, err
	}

	name, err := stringField(req, fieldName)
	if err != nil {
		return nil, err
	}
	processorKey, err := requiredString(req, fieldProcessorKey)
	if err != nil {
		return nil, err
	}
	apiKey, err := stringField(req, fieldAPIKey)
	if err != nil {
		return nil, err
	}

	company := &models.CompanyCreate{
		Name:         name,
		ProcessorKey: processorKey,
	}
	if apiKey != nil {
		company.APIKey = *apiKey
	}
	return company, nil
}

// protoToUpdate converts an update request into a CompanyUpdate. Fields
// missing from the request stay untouched.
func (h *CompanyHandler) protoToUpdate(req *structpb.Struct) (*models.CompanyUpdate, error) {
	if req == nil {
		return nil, errors.New("nil update data")
	}
	if err := checkFields(req, fieldGUID, fieldName, fieldProcessorKey, fieldAPIKey); err != nil {
		return nil, err
	}

	guid, err := requiredString(req, fieldGUID)
	if err != nil {
		return nil, err
	}
	update := &models.CompanyUpdate{GUID: guid}
	if update.Name, err = stringField(req, fieldName); err != nil {
		return nil, err
	}
	if update.ProcessorKey, err = stringField(req, fieldProcessorKey); err != nil {
		return nil, err
	}
	if update.APIKey, err = stringField(req, fieldAPIKey); err != nil {
		return nil, err
	}
	return update, nil
}

// protoToLookup reads the guid and include_deleted flag of a get request.
func (h *CompanyHandler) protoToLookup(req *structpb.Struct) (string, bool, error) {
	if err := checkFields(req, fieldGUID, fieldIncludeDeleted); err != nil {
		return "", false, err
	}
	guid, err := requiredString(req, fieldGUID)
	if err != nil {
		return "", false, err
	}
	includeDeleted, err := boolField(req, fieldIncludeDeleted)
	if err != nil {
		return "", false, err
	}
	return guid, includeDeleted, nil
}

// companyFields is the public view of a company. Credentials are left out
// unless withAPIKey is set.
func companyFields(company *models.Company, withAPIKey bool) map[string]interface{} {
	var name interface{}
	if company.Name != nil {
		name = *company.Name
	}
	fields := map[string]interface{}{
		fieldGUID:      company.GUID,
		fieldName:      name,
		fieldDeleted:   company.Deleted,
		fieldCreatedAt: company.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt: company.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if withAPIKey {
		fields[fieldAPIKey] = company.APIKey
	}
	return fields
}

// modelToProto converts a Company into its public wire form.
func (h *CompanyHandler) modelToProto(company *models.Company) (*structpb.Struct, error) {
	return h.encodeCompany(company, false)
}

// modelToProtoWithKey also carries the API key. It is only used for the
// company's creator, an authenticated updater or the key holder itself.
// The processor key never leaves the service.
func (h *CompanyHandler) modelToProtoWithKey(company *models.Company) (*structpb.Struct, error) {
	return h.encodeCompany(company, true)
}

func (h *CompanyHandler) encodeCompany(company *models.Company, withAPIKey bool) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(companyFields(company, withAPIKey))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode company: %v", err)
	}
	return s, nil
}

func (h *CompanyHandler) modelsToProto(companies []*models.Company) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(companies))
	for _, company := range companies {
		list = append(list, companyFields(company, false))
	}
	s, err := structpb.NewStruct(map[string]interface{}{fieldCompanies: list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode companies: %v", err)
	}
	return s, nil
}

// mapServiceError maps domain or repository errors to appropriate gRPC status codes.
func (h *CompanyHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrDuplicateKey):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
