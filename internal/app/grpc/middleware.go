package grpc

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/achufistov/shortypanel/internal/app/auth"
)

const bearerPrefix = "Bearer "

// AuthInterceptor resolves the "authorization: Bearer <jwt>" metadata into an auth.Principal.
// A call without the header runs anonymously; a malformed or invalid token is rejected.
func AuthInterceptor(tokens *auth.Tokens) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		principal := auth.Anonymous

		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				raw := strings.TrimSpace(values[0])
				if !strings.HasPrefix(raw, bearerPrefix) {
					return nil, status.Error(codes.Unauthenticated, "expected bearer token")
				}
				p, err := tokens.Parse(strings.TrimPrefix(raw, bearerPrefix))
				if err != nil {
					return nil, status.Error(codes.Unauthenticated, "invalid token")
				}
				principal = p
			}
		}

		return handler(auth.WithPrincipal(ctx, principal), req)
	}
}

// LoggingInterceptor logs every unary call with its status code and duration.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// WithToken attaches a session token to outgoing calls.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", bearerPrefix+token)
}
