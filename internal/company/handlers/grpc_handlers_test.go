package handlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	e "github.com/gartstein/billy/internal/company/errors"
	"github.com/gartstein/billy/internal/company/models"
	"github.com/gartstein/billy/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var testTime = time.Date(2013, 8, 16, 0, 0, 0, 0, time.UTC)

func testCompany() *models.Company {
	return &models.Company{
		GUID:         "CPtest",
		Name:         utils.Ptr("Acme"),
		ProcessorKey: "proc-secret",
		APIKey:       "api-key",
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
}

func mustStruct(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func newTestHandler(t *testing.T) (*CompanyHandler, *MockCompanyController) {
	ctrl := new(MockCompanyController)
	t.Cleanup(func() { ctrl.AssertExpectations(t) })
	return NewCompanyHandler(ctrl, zaptest.NewLogger(t)), ctrl
}

func TestCreateCompany(t *testing.T) {
	tests := []struct {
		name     string
		req      map[string]interface{}
		mockFunc func(m *MockCompanyController)
		wantCode codes.Code
	}{
		{
			name: "success",
			req:  map[string]interface{}{"name": "Acme", "processor_key": "proc-secret"},
			mockFunc: func(m *MockCompanyController) {
				m.On("CreateCompany", mock.Anything, &models.CompanyCreate{
					Name:         utils.Ptr("Acme"),
					ProcessorKey: "proc-secret",
				}).Return(testCompany(), nil)
			},
			wantCode: codes.OK,
		},
		{
			name: "explicit api key",
			req:  map[string]interface{}{"processor_key": "proc-secret", "api_key": "mine"},
			mockFunc: func(m *MockCompanyController) {
				m.On("CreateCompany", mock.Anything, &models.CompanyCreate{
					ProcessorKey: "proc-secret",
					APIKey:       "mine",
				}).Return(testCompany(), nil)
			},
			wantCode: codes.OK,
		},
		{
			name:     "missing processor key",
			req:      map[string]interface{}{"name": "Acme"},
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "unknown field",
			req:      map[string]interface{}{"processor_key": "p", "guid": "CPx"},
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "wrong type",
			req:      map[string]interface{}{"processor_key": "p", "name": 42},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "duplicate api key",
			req:  map[string]interface{}{"processor_key": "p", "api_key": "taken"},
			mockFunc: func(m *MockCompanyController) {
				m.On("CreateCompany", mock.Anything, mock.Anything).Return(nil, e.ErrDuplicateKey)
			},
			wantCode: codes.AlreadyExists,
		},
		{
			name: "internal error",
			req:  map[string]interface{}{"processor_key": "p"},
			mockFunc: func(m *MockCompanyController) {
				m.On("CreateCompany", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ctrl := newTestHandler(t)
			if tt.mockFunc != nil {
				tt.mockFunc(ctrl)
			}

			resp, err := h.CreateCompany(context.Background(), mustStruct(t, tt.req))
			if tt.wantCode != codes.OK {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "CPtest", resp.Fields["guid"].GetStringValue())
			assert.Equal(t, "api-key", resp.Fields["api_key"].GetStringValue())
			assert.NotContains(t, resp.Fields, "processor_key")
		})
	}
}

func TestGetCompany(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		ctrl.On("GetCompany", mock.Anything, "CPtest", false).Return(testCompany(), nil)

		resp, err := h.GetCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPtest"}))
		require.NoError(t, err)
		assert.Equal(t, "Acme", resp.Fields["name"].GetStringValue())
		assert.False(t, resp.Fields["deleted"].GetBoolValue())
		assert.Equal(t, "2013-08-16T00:00:00Z", resp.Fields["created_at"].GetStringValue())
		assert.NotContains(t, resp.Fields, "api_key")
	})

	t.Run("include deleted", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		deleted := testCompany()
		deleted.Deleted = true
		ctrl.On("GetCompany", mock.Anything, "CPtest", true).Return(deleted, nil)

		resp, err := h.GetCompany(context.Background(), mustStruct(t, map[string]interface{}{
			"guid":            "CPtest",
			"include_deleted": true,
		}))
		require.NoError(t, err)
		assert.True(t, resp.Fields["deleted"].GetBoolValue())
	})

	t.Run("not found", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		ctrl.On("GetCompany", mock.Anything, "CPnone", false).Return(nil, e.ErrNotFound)

		_, err := h.GetCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPnone"}))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("missing guid", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.GetCompany(context.Background(), &structpb.Struct{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("null name", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		unnamed := testCompany()
		unnamed.Name = nil
		ctrl.On("GetCompany", mock.Anything, "CPtest", false).Return(unnamed, nil)

		resp, err := h.GetCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPtest"}))
		require.NoError(t, err)
		_, isNull := resp.Fields["name"].GetKind().(*structpb.Value_NullValue)
		assert.True(t, isNull)
	})
}

func TestListCompanies(t *testing.T) {
	h, ctrl := newTestHandler(t)
	second := testCompany()
	second.GUID = "CPsecond"
	ctrl.On("ListCompanies", mock.Anything, true).Return([]*models.Company{testCompany(), second}, nil)

	resp, err := h.ListCompanies(context.Background(), mustStruct(t, map[string]interface{}{"include_deleted": true}))
	require.NoError(t, err)

	list := resp.Fields["companies"].GetListValue().GetValues()
	require.Len(t, list, 2)
	assert.Equal(t, "CPtest", list[0].GetStructValue().Fields["guid"].GetStringValue())
	assert.Equal(t, "CPsecond", list[1].GetStructValue().Fields["guid"].GetStringValue())
	for _, item := range list {
		assert.NotContains(t, item.GetStructValue().Fields, "api_key")
	}

	_, err = h.ListCompanies(context.Background(), mustStruct(t, map[string]interface{}{"include_deleted": "yes"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUpdateCompany(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		ctrl.On("UpdateCompany", mock.Anything, &models.CompanyUpdate{
			GUID: "CPtest",
			Name: utils.Ptr("Renamed"),
		}).Return(testCompany(), nil)

		_, err := h.UpdateCompany(context.Background(), mustStruct(t, map[string]interface{}{
			"guid": "CPtest",
			"name": "Renamed",
		}))
		require.NoError(t, err)
	})

	t.Run("read only field rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.UpdateCompany(context.Background(), mustStruct(t, map[string]interface{}{
			"guid":       "CPtest",
			"created_at": "2020-01-01T00:00:00Z",
		}))
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "created_at")
	})

	t.Run("not found", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		ctrl.On("UpdateCompany", mock.Anything, mock.Anything).Return(nil, e.ErrNotFound)

		_, err := h.UpdateCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPnone"}))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		h, ctrl := newTestHandler(t)
		ctrl.On("UpdateCompany", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: name too long", e.ErrInvalidInput))

		_, err := h.UpdateCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPtest", "name": "x"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestDeleteCompany(t *testing.T) {
	h, ctrl := newTestHandler(t)
	ctrl.On("DeleteCompany", mock.Anything, "CPtest").Return(nil)
	ctrl.On("DeleteCompany", mock.Anything, "CPnone").Return(e.ErrNotFound)

	resp, err := h.DeleteCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPtest"}))
	require.NoError(t, err)
	assert.Empty(t, resp.Fields)

	_, err = h.DeleteCompany(context.Background(), mustStruct(t, map[string]interface{}{"guid": "CPnone"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetCompanyByAPIKey(t *testing.T) {
	h, ctrl := newTestHandler(t)
	ctrl.On("GetCompanyByAPIKey", mock.Anything, "api-key").Return(testCompany(), nil)
	ctrl.On("GetCompanyByAPIKey", mock.Anything, "stale").Return(nil, e.ErrNotFound)

	resp, err := h.GetCompanyByAPIKey(context.Background(), mustStruct(t, map[string]interface{}{"api_key": "api-key"}))
	require.NoError(t, err)
	assert.Equal(t, "CPtest", resp.Fields["guid"].GetStringValue())
	assert.Equal(t, "api-key", resp.Fields["api_key"].GetStringValue())

	_, err = h.GetCompanyByAPIKey(context.Background(), mustStruct(t, map[string]interface{}{"api_key": "stale"}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = h.GetCompanyByAPIKey(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
