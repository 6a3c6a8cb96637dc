package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// Client calls the shortener service over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Shorten returns the short code of longURL.
func (c *Client) Shorten(ctx context.Context, longURL string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodShorten, wrapperspb.String(longURL), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Resolve returns the long URL of code.
func (c *Client) Resolve(ctx context.Context, code string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodResolve, wrapperspb.String(code), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Ping checks the server and its store.
func (c *Client) Ping(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodPing, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

// Stats returns service totals. The context must carry an admin token, see WithToken.
func (c *Client) Stats(ctx context.Context, opts ...grpc.CallOption) (models.Stats, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodStats, &emptypb.Empty{}, out, opts...); err != nil {
		return models.Stats{}, err
	}
	fields := out.GetFields()
	return models.Stats{
		URLs:   int(fields["urls"].GetNumberValue()),
		Users:  int(fields["users"].GetNumberValue()),
		Visits: int(fields["visits"].GetNumberValue()),
	}, nil
}
