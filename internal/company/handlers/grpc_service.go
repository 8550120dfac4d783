package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "billy.v1.CompanyService"

// CompanyServiceServer is the server API of the company service. Requests
// and responses are google.protobuf.Struct messages whose fields are
// validated by the handler.
type CompanyServiceServer interface {
	CreateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCompanies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompanyByAPIKey(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CompanyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethodDesc(name string, method unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return method(srv.(CompanyServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return method(srv.(CompanyServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var companyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CompanyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethodDesc("CreateCompany", CompanyServiceServer.CreateCompany),
		unaryMethodDesc("GetCompany", CompanyServiceServer.GetCompany),
		unaryMethodDesc("ListCompanies", CompanyServiceServer.ListCompanies),
		unaryMethodDesc("UpdateCompany", CompanyServiceServer.UpdateCompany),
		unaryMethodDesc("DeleteCompany", CompanyServiceServer.DeleteCompany),
		unaryMethodDesc("GetCompanyByAPIKey", CompanyServiceServer.GetCompanyByAPIKey),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterCompanyServiceServer registers srv on the gRPC registrar.
func RegisterCompanyServiceServer(s grpc.ServiceRegistrar, srv CompanyServiceServer) {
	s.RegisterService(&companyServiceDesc, srv)
}

// CompanyServiceClient calls the company service over a client connection.
type CompanyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCompanyServiceClient(cc grpc.ClientConnInterface) *CompanyServiceClient {
	return &CompanyServiceClient{cc: cc}
}

// Call invokes method (e.g. "GetCompany") with the given request.
func (c *CompanyServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
