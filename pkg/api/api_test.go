package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lemonberrylabs/lumin/pkg/store"
	"github.com/lemonberrylabs/lumin/pkg/transpiler"
)

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := store.New()
	return New(s, transpiler.New(transpiler.Options{}), Options{}), s
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", data, err)
	}
	return resp.StatusCode, out
}

func errorField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	return e
}

func TestTranspileEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, body := doJSON(t, srv, "POST", "/v1/transpile", `{"source": "output 1 + 2\n"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	if body["output"] != "console.log((1 + 2));\n" {
		t.Errorf("unexpected output %q", body["output"])
	}
}

func TestTranspileEndpointErrors(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name string
		body string
		line float64
		col  float64
	}{
		{"syntax", `{"source": "func f()\n  output 1\n"}`, 3, 1},
		{"lexical", `{"source": "x = @"}`, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, srv, "POST", "/v1/transpile", tt.body)
			if code != 400 {
				t.Fatalf("expected 400, got %d", code)
			}
			e := errorField(t, body)
			if e["status"] != "INVALID_ARGUMENT" || e["code"] != float64(400) {
				t.Errorf("unexpected envelope %v", e)
			}
			pos, ok := e["position"].(map[string]any)
			if !ok {
				t.Fatalf("expected position, got %v", e)
			}
			if pos["line"] != tt.line || pos["col"] != tt.col {
				t.Errorf("got position %v, want %v:%v", pos, tt.line, tt.col)
			}
		})
	}

	code, _ := doJSON(t, srv, "POST", "/v1/transpile", `{not json`)
	if code != 400 {
		t.Errorf("expected 400 for malformed body, got %d", code)
	}
}

func TestUnitCRUD(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, body := doJSON(t, srv, "POST", "/v1/units?unitId=greet", `{"source": "output \"hi\"\n", "description": "says hi"}`)
	if code != 200 {
		t.Fatalf("create: expected 200, got %d: %v", code, body)
	}
	if body["name"] != "units/greet" || body["state"] != "COMPILED" {
		t.Errorf("create: unexpected unit %v", body)
	}
	if body["output"] != "console.log(\"hi\");\n" {
		t.Errorf("create: unexpected output %q", body["output"])
	}

	code, _ = doJSON(t, srv, "POST", "/v1/units?unitId=greet", `{"source": "output 1"}`)
	if code != 409 {
		t.Errorf("duplicate create: expected 409, got %d", code)
	}

	code, body = doJSON(t, srv, "GET", "/v1/units/greet", "")
	if code != 200 || body["description"] != "says hi" {
		t.Errorf("get: unexpected %d %v", code, body)
	}

	code, body = doJSON(t, srv, "PATCH", "/v1/units/greet", `{"source": "output (\n"}`)
	if code != 200 {
		t.Fatalf("update: expected 200, got %d: %v", code, body)
	}
	if body["state"] != "FAILED" {
		t.Errorf("update: expected FAILED state, got %v", body["state"])
	}
	if _, ok := errorField(t, body)["position"]; !ok {
		t.Error("update: expected error position")
	}

	code, body = doJSON(t, srv, "PATCH", "/v1/units/greet", `{"description": "fixed later"}`)
	if code != 200 || body["description"] != "fixed later" || body["source"] != "output (\n" {
		t.Errorf("description-only update: unexpected %d %v", code, body)
	}

	code, body = doJSON(t, srv, "GET", "/v1/units", "")
	if code != 200 {
		t.Fatalf("list: expected 200, got %d", code)
	}
	if units, ok := body["units"].([]any); !ok || len(units) != 1 {
		t.Errorf("list: unexpected %v", body)
	}

	code, body = doJSON(t, srv, "DELETE", "/v1/units/greet", "")
	if code != 200 || body["done"] != true {
		t.Errorf("delete: unexpected %d %v", code, body)
	}
	code, body = doJSON(t, srv, "GET", "/v1/units/greet", "")
	if code != 404 || errorField(t, body)["status"] != "NOT_FOUND" {
		t.Errorf("get after delete: unexpected %d %v", code, body)
	}
	code, _ = doJSON(t, srv, "PATCH", "/v1/units/greet", `{"source": "output 1"}`)
	if code != 404 {
		t.Errorf("update missing: expected 404, got %d", code)
	}
	code, _ = doJSON(t, srv, "DELETE", "/v1/units/greet", "")
	if code != 404 {
		t.Errorf("delete missing: expected 404, got %d", code)
	}
}

func TestCreateUnitValidation(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"missing id", "/v1/units", `{"source": "output 1"}`},
		{"invalid id", "/v1/units?unitId=Bad!", `{"source": "output 1"}`},
		{"missing source", "/v1/units?unitId=ok", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, srv, "POST", tt.path, tt.body)
			if code != 400 {
				t.Errorf("expected 400, got %d: %v", code, body)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	srv, s := setupTestServer(t)
	dir := t.TempDir()

	files := map[string]string{
		"Main.lum":    "output 1\n",
		"broken.lum":  "func f()\n",
		"notes.txt":   "ignored",
		"9bad.lum":    "output 2\n",
		"helpers.lum": "func twice(x: num) -> num\n  return x * 2\nend\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.lum"), 0o755); err != nil {
		t.Fatal(err)
	}

	n, err := srv.LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 units loaded, got %d", n)
	}

	main, err := s.GetUnit("main")
	if err != nil {
		t.Fatalf("expected lowercased unit: %v", err)
	}
	if main.State != store.UnitCompiled || main.Output != "console.log(1);\n" {
		t.Errorf("unexpected main unit %+v", main)
	}

	broken, err := s.GetUnit("broken")
	if err != nil {
		t.Fatalf("expected failed unit stored: %v", err)
	}
	if broken.State != store.UnitFailed || broken.Error.Line != 2 {
		t.Errorf("unexpected broken unit %+v", broken)
	}

	if _, err := srv.LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
