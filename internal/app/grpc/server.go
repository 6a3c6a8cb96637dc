// Package grpc provides gRPC server implementation for the URL shortening service.
package grpc

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/service"
)

// Server implements the ShortenerServer gRPC interface.
type Server struct {
	service *service.Service
	logger  *zap.Logger
}

var _ ShortenerServer = (*Server)(nil)

// NewServer creates a new gRPC server instance.
func NewServer(svc *service.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		service: svc,
		logger:  logger,
	}
}

// Shorten stores a long URL and returns its short code.
// Calls without a bearer token shorten anonymously.
func (s *Server) Shorten(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	resp, err := s.service.ShortenURL(ctx, service.ShortenURLRequest{
		Principal: auth.PrincipalFrom(ctx),
		Input:     models.ShortenInput{URL: req.GetValue()},
	})
	if verrs, ok := models.IsValidation(err); ok {
		return nil, status.Error(codes.InvalidArgument, verrs.Error())
	}
	if err != nil {
		s.logger.Error("grpc shorten failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "shortener service failed")
	}

	return wrapperspb.String(resp.URL.ShortURL), nil
}

// Resolve returns the long URL of a code and records a visit from the peer address.
func (s *Server) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	longURL, err := s.service.ResolveURL(ctx, req.GetValue(), visitorIP(ctx))
	if errors.Is(err, models.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "URL not found")
	}
	if err != nil {
		s.logger.Error("grpc resolve failed", zap.Error(err))
		return nil, status.Error(codes.Internal, "could not resolve")
	}

	return wrapperspb.String(longURL), nil
}

// Ping handles gRPC health check requests.
func (s *Server) Ping(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.service.Ping(ctx); err != nil {
		return nil, status.Errorf(codes.Unavailable, "storage ping failed: %v", err)
	}
	return &emptypb.Empty{}, nil
}

// Stats returns url, user and visit totals. Admin only.
func (s *Server) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if !auth.PrincipalFrom(ctx).IsAdmin() {
		return nil, status.Error(codes.PermissionDenied, "admin role required")
	}

	st, err := s.service.Stats(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get stats: %v", err)
	}

	return structpb.NewStruct(map[string]any{
		"urls":   st.URLs,
		"users":  st.Users,
		"visits": st.Visits,
	})
}

// visitorIP prefers the x-real-ip metadata set by a proxy, then the peer address.
func visitorIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 && ips[0] != "" {
			return ips[0]
		}
	}
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
