package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "bamazon.v1.CatalogService"

// CatalogServiceServer is the server API for CatalogService. Requests and
// replies are google.protobuf.Struct documents shaped like the HTTP bodies.
type CatalogServiceServer interface {
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Purchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDepartments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterDepartment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DepartmentReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(CatalogServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var CatalogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListProducts", Handler: unaryHandler("ListProducts", CatalogServiceServer.ListProducts)},
		{MethodName: "GetProduct", Handler: unaryHandler("GetProduct", CatalogServiceServer.GetProduct)},
		{MethodName: "Purchase", Handler: unaryHandler("Purchase", CatalogServiceServer.Purchase)},
		{MethodName: "ListDepartments", Handler: unaryHandler("ListDepartments", CatalogServiceServer.ListDepartments)},
		{MethodName: "RegisterDepartment", Handler: unaryHandler("RegisterDepartment", CatalogServiceServer.RegisterDepartment)},
		{MethodName: "DepartmentReport", Handler: unaryHandler("DepartmentReport", CatalogServiceServer.DepartmentReport)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bamazon/v1/catalog.proto",
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogService_ServiceDesc, srv)
}
