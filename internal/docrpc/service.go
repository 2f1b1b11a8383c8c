// Package docrpc describes the DocumentStore gRPC service shared by the
// document server and the client-side remote store.
//
// Messages travel as google.protobuf.Struct values, so both sides use the
// stock protobuf codec without generated stubs. The typed request and
// response values in this package convert to and from those structs.
package docrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ridekeeper.docstore.v1.DocumentStore"

// Full method names, as seen by interceptors.
const (
	MethodPing   = "/" + ServiceName + "/Ping"
	MethodLogin  = "/" + ServiceName + "/Login"
	MethodCreate = "/" + ServiceName + "/Create"
	MethodSet    = "/" + ServiceName + "/Set"
	MethodUpdate = "/" + ServiceName + "/Update"
	MethodGet    = "/" + ServiceName + "/Get"
	MethodDelete = "/" + ServiceName + "/Delete"
	MethodQuery  = "/" + ServiceName + "/Query"
	MethodWatch  = "/" + ServiceName + "/Watch"
)

// DocumentStoreServer is implemented by the document server.
type DocumentStoreServer interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Create(ctx context.Context, req CreateRequest) (string, error)
	Set(ctx context.Context, req SetRequest) error
	Update(ctx context.Context, req UpdateRequest) error
	Get(ctx context.Context, ref DocumentRef) (Document, error)
	Delete(ctx context.Context, ref DocumentRef) error
	Query(ctx context.Context, req QueryRequest) ([]Document, error)
	// Watch sends the current state of the document followed by every
	// change until ctx is done or send fails.
	Watch(ctx context.Context, ref DocumentRef, send func(Change) error) error
}

// RegisterDocumentStoreServer registers srv on s.
func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(MethodPing, handlePing)},
		{MethodName: "Login", Handler: unary(MethodLogin, handleLogin)},
		{MethodName: "Create", Handler: unary(MethodCreate, handleCreate)},
		{MethodName: "Set", Handler: unary(MethodSet, handleSet)},
		{MethodName: "Update", Handler: unary(MethodUpdate, handleUpdate)},
		{MethodName: "Get", Handler: unary(MethodGet, handleGet)},
		{MethodName: "Delete", Handler: unary(MethodDelete, handleDelete)},
		{MethodName: "Query", Handler: unary(MethodQuery, handleQuery)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: handleWatch, ServerStreams: true},
	},
	Metadata: "ridekeeper/docstore/v1/docstore.proto",
}

type unaryCall func(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(DocumentStoreServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func handlePing(srv DocumentStoreServer, ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := srv.Ping(ctx); err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"status": StatusOK})
}

func handleLogin(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeLoginRequest(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	resp, err := srv.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Struct()
}

func handleCreate(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeCreateRequest(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	id, err := srv.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"id": id})
}

func handleSet(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeSetRequest(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := srv.Set(ctx, req); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func handleUpdate(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeUpdateRequest(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := srv.Update(ctx, req); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func handleGet(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ref, err := DecodeDocumentRef(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	doc, err := srv.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return doc.Struct()
}

func handleDelete(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ref, err := DecodeDocumentRef(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := srv.Delete(ctx, ref); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func handleQuery(srv DocumentStoreServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeQueryRequest(in)
	if err != nil {
		return nil, invalidArgument(err)
	}
	docs, err := srv.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	return QueryResponse{Documents: docs}.Struct()
}

func handleWatch(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	ref, err := DecodeDocumentRef(in)
	if err != nil {
		return invalidArgument(err)
	}
	return srv.(DocumentStoreServer).Watch(stream.Context(), ref, func(c Change) error {
		msg, err := c.Struct()
		if err != nil {
			return err
		}
		return stream.SendMsg(msg)
	})
}
