package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the lumin.v1.Transpiler service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Transpile converts source on the server.
func (c *Client) Transpile(ctx context.Context, source string, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Transpile", wrapperspb.String(source), out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Tokenize returns the server's token stream for source.
func (c *Client) Tokenize(ctx context.Context, source string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Tokenize", wrapperspb.String(source), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUnit fetches a stored unit.
func (c *Client) GetUnit(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetUnit", wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
