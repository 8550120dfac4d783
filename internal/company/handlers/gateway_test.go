package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gartstein/billy/internal/company/auth"
	e "github.com/gartstein/billy/internal/company/errors"
	"github.com/gartstein/billy/internal/company/models"
	"github.com/gartstein/billy/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const gatewaySecret = "gateway-secret"

func newTestGateway(t *testing.T) (http.Handler, *MockCompanyController, string) {
	h, ctrl := newTestHandler(t)
	mux, err := NewGatewayMux(h)
	require.NoError(t, err)

	token, err := auth.GenerateToken("tester", gatewaySecret, time.Hour)
	require.NoError(t, err)
	return auth.HTTPMiddleware(mux, gatewaySecret), ctrl, token
}

func doRequest(handler http.Handler, method, path, body, authz string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGatewayCreateCompany(t *testing.T) {
	handler, ctrl, token := newTestGateway(t)
	ctrl.On("CreateCompany", mock.Anything, &models.CompanyCreate{
		Name:         utils.Ptr("Acme"),
		ProcessorKey: "proc-secret",
	}).Return(testCompany(), nil)

	rec := doRequest(handler, http.MethodPost, "/v1/companies", `{"name":"Acme","processor_key":"proc-secret"}`, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "CPtest", body["guid"])
	assert.Equal(t, "api-key", body["api_key"])
	assert.NotContains(t, body, "processor_key")
}

func TestGatewayCreateCompanyRequiresToken(t *testing.T) {
	handler, _, _ := newTestGateway(t)

	rec := doRequest(handler, http.MethodPost, "/v1/companies", `{"processor_key":"p"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGatewayCreateCompanyBadRequest(t *testing.T) {
	handler, _, token := newTestGateway(t)

	rec := doRequest(handler, http.MethodPost, "/v1/companies", `{"processor_key":"p","deleted":true}`, "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(handler, http.MethodPost, "/v1/companies", `not json`, "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatewayGetCompany(t *testing.T) {
	handler, ctrl, _ := newTestGateway(t)
	ctrl.On("GetCompany", mock.Anything, "CPtest", true).Return(testCompany(), nil)
	ctrl.On("GetCompany", mock.Anything, "CPnone", false).Return(nil, e.ErrNotFound)

	rec := doRequest(handler, http.MethodGet, "/v1/companies/CPtest?include_deleted=true", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Acme", body["name"])
	assert.NotContains(t, body, "api_key")

	rec = doRequest(handler, http.MethodGet, "/v1/companies/CPnone", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(handler, http.MethodGet, "/v1/companies/CPtest?include_deleted=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatewayListCompanies(t *testing.T) {
	handler, ctrl, _ := newTestGateway(t)
	ctrl.On("ListCompanies", mock.Anything, false).Return([]*models.Company{testCompany()}, nil)

	rec := doRequest(handler, http.MethodGet, "/v1/companies", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	companies, ok := decodeBody(t, rec)["companies"].([]interface{})
	require.True(t, ok)
	require.Len(t, companies, 1)
	company, ok := companies[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CPtest", company["guid"])
	assert.NotContains(t, company, "api_key")
	assert.NotContains(t, rec.Body.String(), "api-key")
}

func TestGatewayUpdateCompany(t *testing.T) {
	handler, ctrl, token := newTestGateway(t)
	ctrl.On("UpdateCompany", mock.Anything, &models.CompanyUpdate{
		GUID: "CPtest",
		Name: utils.Ptr("Renamed"),
	}).Return(testCompany(), nil)

	rec := doRequest(handler, http.MethodPatch, "/v1/companies/CPtest", `{"name":"Renamed"}`, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGatewayDeleteCompany(t *testing.T) {
	handler, ctrl, token := newTestGateway(t)
	ctrl.On("DeleteCompany", mock.Anything, "CPtest").Return(nil)

	rec := doRequest(handler, http.MethodDelete, "/v1/companies/CPtest", "", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(handler, http.MethodDelete, "/v1/companies/CPtest", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGatewayGetCompanyByAPIKey(t *testing.T) {
	handler, ctrl, _ := newTestGateway(t)
	ctrl.On("GetCompanyByAPIKey", mock.Anything, "api-key").Return(testCompany(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/company", nil)
	req.SetBasicAuth("api-key", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "CPtest", body["guid"])
	assert.Equal(t, "api-key", body["api_key"])

	rec = doRequest(handler, http.MethodGet, "/v1/company", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
