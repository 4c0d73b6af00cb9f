package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	grpcapi "github.com/lemonberrylabs/lumin/pkg/api/grpc"
)

// grpcEndpoint returns the gRPC endpoint address (host:port).
func grpcEndpoint() string {
	if ep := os.Getenv("LUMIN_GRPC_ENDPOINT"); ep != "" {
		return ep
	}
	return "localhost:8788"
}

func newGRPCClient(t *testing.T) *grpcapi.Client {
	t.Helper()
	conn, err := grpc.NewClient(grpcEndpoint(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return grpcapi.NewClient(conn)
}

func grpcContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGRPC_TranspileMatchesHTTP(t *testing.T) {
	client := newGRPCClient(t)
	src := "func twice(n: num) -> num\n  return n * 2\nend\noutput twice(4)\n"

	out, err := client.Transpile(grpcContext(t), src)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	assertOutput(t, out, transpile(t, src))
}

func TestGRPC_TranspileInvalidArgument(t *testing.T) {
	client := newGRPCClient(t)

	_, err := client.Transpile(grpcContext(t), "output )\n")
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestGRPC_Tokenize(t *testing.T) {
	client := newGRPCClient(t)

	list, err := client.Tokenize(grpcContext(t), "let x = 1")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	values := list.GetValues()
	if len(values) == 0 {
		t.Fatal("expected tokens")
	}
	first := values[0].GetStructValue().GetFields()
	if first["lexeme"].GetStringValue() != "let" {
		t.Errorf("expected first lexeme 'let', got %v", first["lexeme"])
	}
	last := values[len(values)-1].GetStructValue().GetFields()
	if last["kind"].GetStringValue() != "EOF" {
		t.Errorf("expected EOF last, got %v", last["kind"])
	}
}

func TestGRPC_GetUnitSharedWithHTTP(t *testing.T) {
	id := uniqueID("shared")
	createUnit(t, id, "output 1\n")

	client := newGRPCClient(t)
	unit, err := client.GetUnit(grpcContext(t), id)
	if err != nil {
		t.Fatalf("GetUnit: %v", err)
	}
	fields := unit.GetFields()
	if fields["name"].GetStringValue() != "units/"+id {
		t.Errorf("unexpected name %v", fields["name"])
	}
	if fields["output"].GetStringValue() != "console.log(1);\n" {
		t.Errorf("unexpected output %v", fields["output"])
	}
}

func TestGRPC_GetUnitNotFound(t *testing.T) {
	client := newGRPCClient(t)

	_, err := client.GetUnit(grpcContext(t), uniqueID("missing"))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
