package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type gatewayCall func(context.Context, *structpb.Struct) (*structpb.Struct, error)

// requestBuilder assembles the request message of a route from the HTTP
// request and its path parameters.
type requestBuilder func(r *http.Request, params map[string]string, inbound runtime.Marshaler) (*structpb.Struct, error)

type gateway struct {
	mux    *runtime.ServeMux
	logger *zap.Logger
}

// NewGatewayMux routes the REST API straight onto the handler methods, so
// HTTP and gRPC share validation and error mapping.
func NewGatewayMux(h *CompanyHandler) (*runtime.ServeMux, error) {
	g := &gateway{
		mux:    runtime.NewServeMux(),
		logger: h.logger.Named("gateway"),
	}

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{http.MethodPost, "/v1/companies", g.serve(h.CreateCompany, bodyRequest)},
		{http.MethodGet, "/v1/companies", g.serve(h.ListCompanies, queryRequest)},
		{http.MethodGet, "/v1/companies/{guid}", g.serve(h.GetCompany, queryRequest)},
		{http.MethodPatch, "/v1/companies/{guid}", g.serve(h.UpdateCompany, bodyRequest)},
		{http.MethodDelete, "/v1/companies/{guid}", g.serve(h.DeleteCompany, queryRequest)},
		{http.MethodGet, "/v1/company", g.serve(h.GetCompanyByAPIKey, apiKeyRequest)},
	}
	for _, route := range routes {
		if err := g.mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, err
		}
	}
	return g.mux, nil
}

func (g *gateway) serve(call gatewayCall, build requestBuilder) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		ctx := r.Context()
		inbound, outbound := runtime.MarshalerForRequest(g.mux, r)

		req, err := build(r, params, inbound)
		if err != nil {
			runtime.HTTPError(ctx, g.mux, outbound, w, r, status.Error(codes.InvalidArgument, err.Error()))
			return
		}

		resp, err := call(ctx, req)
		if err != nil {
			runtime.HTTPError(ctx, g.mux, outbound, w, r, err)
			return
		}

		buf, err := outbound.Marshal(resp)
		if err != nil {
			runtime.HTTPError(ctx, g.mux, outbound, w, r, status.Error(codes.Internal, err.Error()))
			return
		}
		w.Header().Set("Content-Type", outbound.ContentType(resp))
		if _, err := w.Write(buf); err != nil {
			g.logger.Warn("failed to write response", zap.Error(err))
		}
	}
}

func withPathParams(req *structpb.Struct, params map[string]string) *structpb.Struct {
	if len(params) == 0 {
		return req
	}
	if req.Fields == nil {
		req.Fields = make(map[string]*structpb.Value, len(params))
	}
	for name, value := range params {
		req.Fields[name] = structpb.NewStringValue(value)
	}
	return req
}

func bodyRequest(r *http.Request, params map[string]string, inbound runtime.Marshaler) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if err := inbound.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return withPathParams(req, params), nil
}

func queryRequest(r *http.Request, params map[string]string, _ runtime.Marshaler) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if raw := r.URL.Query().Get(fieldIncludeDeleted); raw != "" {
		includeDeleted, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		req.Fields = map[string]*structpb.Value{
			fieldIncludeDeleted: structpb.NewBoolValue(includeDeleted),
		}
	}
	return withPathParams(req, params), nil
}

// apiKeyRequest reads the API key from the basic-auth username.
func apiKeyRequest(r *http.Request, _ map[string]string, _ runtime.Marshaler) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if apiKey, _, ok := r.BasicAuth(); ok {
		req.Fields = map[string]*structpb.Value{
			fieldAPIKey: structpb.NewStringValue(apiKey),
		}
	}
	return req, nil
}
