package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "shortener.Shortener"

// Full method names.
const (
	MethodShorten = "/" + ServiceName + "/Shorten"
	MethodResolve = "/" + ServiceName + "/Resolve"
	MethodPing    = "/" + ServiceName + "/Ping"
	MethodStats   = "/" + ServiceName + "/Stats"
)

// ShortenerServer is the server API of the shortener service.
// Messages are protobuf well-known types, so no generated code is needed.
type ShortenerServer interface {
	Shorten(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Resolve(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterShortenerServer registers srv on s.
func RegisterShortenerServer(s grpc.ServiceRegistrar, srv ShortenerServer) {
	s.RegisterService(&ShortenerServiceDesc, srv)
}

// ShortenerServiceDesc describes the shortener service for grpc.Server.
var ShortenerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShortenerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Shorten", Handler: shortenHandler},
		{MethodName: "Resolve", Handler: resolveHandler},
		{MethodName: "Ping", Handler: pingHandler},
		{MethodName: "Stats", Handler: statsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortener.proto",
}

// unary adapts a typed method to the grpc.MethodDesc handler signature.
func unary[Req any, Resp any](
	fullMethod string,
	call func(ShortenerServer, context.Context, *Req) (Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ShortenerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ShortenerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	shortenHandler = unary(MethodShorten, ShortenerServer.Shorten)
	resolveHandler = unary(MethodResolve, ShortenerServer.Resolve)
	pingHandler    = unary(MethodPing, ShortenerServer.Ping)
	statsHandler   = unary(MethodStats, ShortenerServer.Stats)
)
