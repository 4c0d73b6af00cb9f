// Package grpcapi implements the lumin.v1.Transpiler gRPC service. Requests
// and responses use the well-known protobuf types, so no generated code is
// needed on either side.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/lumin/pkg/store"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lumin.v1.Transpiler"

// ErrorDomain is the domain of ErrorInfo details attached to source errors.
const ErrorDomain = "lumin.dev"

// TranspilerServer is the server API for the lumin.v1.Transpiler service.
type TranspilerServer interface {
	// Transpile converts Lumin source to TypeScript.
	Transpile(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// Tokenize returns the token stream of a source as a list of
	// {kind, lexeme, line, col} structs.
	Tokenize(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	// GetUnit returns a stored unit by ID.
	GetUnit(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// ServiceDesc describes the lumin.v1.Transpiler service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranspilerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Transpile", Handler: unaryHandler("Transpile", TranspilerServer.Transpile)},
		{MethodName: "Tokenize", Handler: unaryHandler("Tokenize", TranspilerServer.Tokenize)},
		{MethodName: "GetUnit", Handler: unaryHandler("GetUnit", TranspilerServer.GetUnit)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lumin/v1/transpiler.proto",
}

// unaryHandler adapts a TranspilerServer method taking a StringValue to a
// grpc.MethodHandler.
func unaryHandler[R any](method string, call func(TranspilerServer, context.Context, *wrapperspb.StringValue) (R, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TranspilerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TranspilerServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Server implements TranspilerServer.
type Server struct {
	store *store.Store
	tr    *transpiler.Transpiler
	grpc  *grpc.Server
}

// New creates a new gRPC server backed by the given store and transpiler.
func New(s *store.Store, tr *transpiler.Transpiler) *Server {
	srv := &Server{store: s, tr: tr}

	gs := grpc.NewServer()
	gs.RegisterService(&ServiceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

func (s *Server) Transpile(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	out, err := s.tr.Transpile(req.GetValue())
	if err != nil {
		return nil, sourceStatus(err)
	}
	return wrapperspb.String(out), nil
}

func (s *Server) Tokenize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	tokens, err := s.tr.Tokenize(req.GetValue())
	if err != nil {
		return nil, sourceStatus(err)
	}

	values := make([]*structpb.Value, len(tokens))
	for i, tok := range tokens {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"kind":   structpb.NewStringValue(tok.Kind.String()),
			"lexeme": structpb.NewStringValue(tok.Lexeme),
			"line":   structpb.NewNumberValue(float64(tok.Pos.Line)),
			"col":    structpb.NewNumberValue(float64(tok.Pos.Col)),
		}})
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *Server) GetUnit(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "unit id is required")
	}
	u, err := s.store.GetUnit(req.GetValue())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return unitToProto(u)
}

// sourceStatus maps a transpile failure to a gRPC status. Errors with a
// source position carry it as an ErrorInfo detail.
func sourceStatus(err error) error {
	if !transpiler.IsSourceError(err) {
		return status.Error(codes.Internal, err.Error())
	}

	st := status.New(codes.InvalidArgument, err.Error())
	pos, ok := transpiler.Position(err)
	if !ok {
		return st.Err()
	}
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: "SOURCE_ERROR",
		Domain: ErrorDomain,
		Metadata: map[string]string{
			"line": strconv.Itoa(pos.Line),
			"col":  strconv.Itoa(pos.Col),
		},
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

func unitToProto(u *store.Unit) (*structpb.Struct, error) {
	fields := map[string]any{
		"name":       u.Name,
		"state":      string(u.State),
		"revisionId": u.RevisionID,
		"createTime": u.CreateTime.Format(time.RFC3339),
		"updateTime": u.UpdateTime.Format(time.RFC3339),
		"source":     u.Source,
	}
	if u.Description != "" {
		fields["description"] = u.Description
	}
	if u.Output != "" {
		fields["output"] = u.Output
	}
	if u.Error != nil {
		fields["error"] = map[string]any{
			"message": u.Error.Message,
			"line":    u.Error.Line,
			"col":     u.Error.Col,
		}
	}
	pb, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return pb, nil
}
