package grpcapi

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/lemonberrylabs/lumin/pkg/store"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
)

func startTestServer(t *testing.T) (string, *store.Store, func()) {
	t.Helper()
	s := store.New()
	srv := New(s, transpiler.New(transpiler.Options{}))

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	return lis.Addr().String(), s, func() {
		srv.grpc.Stop()
	}
}

func dial(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestTranspile(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	client := NewClient(conn)
	out, err := client.Transpile(testContext(t), "enum Color red green end\n")
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	want := "enum Color {\n  red = 0,\n  green = 1,\n}\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestTranspileSyntaxError(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	_, err := NewClient(conn).Transpile(testContext(t), "while x\n  output x\n")
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %v", err)
	}
	if st.Code() != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %s", st.Code())
	}
	if !strings.Contains(st.Message(), "unterminated while") {
		t.Errorf("unexpected message %q", st.Message())
	}

	var info *errdetails.ErrorInfo
	for _, d := range st.Details() {
		if ei, ok := d.(*errdetails.ErrorInfo); ok {
			info = ei
		}
	}
	if info == nil {
		t.Fatal("expected ErrorInfo detail")
	}
	if info.GetDomain() != ErrorDomain || info.GetMetadata()["line"] != "3" || info.GetMetadata()["col"] != "1" {
		t.Errorf("unexpected detail %v", info)
	}
}

func TestTokenize(t *testing.T) {
	addr, _, cleanup := startTestServer(t)
	defer cleanup()

	conn := dial(t, addr)
	defer conn.Close()

	list, err := NewClient(conn).Tokenize(testContext(t), "x -> 'y'")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	values := list.GetValues()
	if len(values) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(values))
	}
	arrow := values[1].GetStructValue().GetFields()
	if arrow["kind"].GetStringValue() != "ARROW" || arrow["lexeme"].GetStringValue() != "->" {
		t.Errorf("unexpected token %v", arrow)
	}
	if arrow["line"].GetNumberValue() != 1 || arrow["col"].GetNumberValue() != 3 {
		t.Errorf("unexpected position %v", arrow)
	}
	if values[3].GetStructValue().GetFields()["kind"].GetStringValue() != "EOF" {
		t.Errorf("expected trailing EOF, got %v", values[3])
	}

	_, err = NewClient(conn).Tokenize(testContext(t), "x = \"open")
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestGetUnit(t *testing.T) {
	addr, s, cleanup := startTestServer(t)
	defer cleanup()

	s.PutUnit("main", "output 1", store.Compilation{Output: "console.log(1);\n"})

	conn := dial(t, addr)
	defer conn.Close()
	client := NewClient(conn)

	u, err := client.GetUnit(testContext(t), "main")
	if err != nil {
		t.Fatalf("GetUnit: %v", err)
	}
	fields := u.GetFields()
	if fields["name"].GetStringValue() != "units/main" || fields["state"].GetStringValue() != "COMPILED" {
		t.Errorf("unexpected unit %v", fields)
	}
	if fields["output"].GetStringValue() != "console.log(1);\n" {
		t.Errorf("unexpected output %v", fields["output"])
	}

	if _, err := client.GetUnit(testContext(t), "missing"); status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
	if _, err := client.GetUnit(testContext(t), ""); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
