package integration

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func uiURL(path string) string {
	return strings.TrimRight(testServer, "/") + path
}

func getPage(t *testing.T, path string, wantStatus int) string {
	t.Helper()
	resp, err := http.Get(uiURL(path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected %d, got %d", path, wantStatus, resp.StatusCode)
	}
	return string(body)
}

func TestWebUI_DashboardListsUnit(t *testing.T) {
	id := uniqueID("ui")
	createUnit(t, id, "output 1\n")

	html := getPage(t, "/ui", http.StatusOK)
	if !strings.Contains(html, "/ui/units/"+id) {
		t.Errorf("expected link to %s on dashboard", id)
	}

	html = getPage(t, "/ui/units/"+id, http.StatusOK)
	if !strings.Contains(html, "console.log(1);") {
		t.Error("expected transpiled output on detail page")
	}
}

func TestWebUI_UnknownUnit(t *testing.T) {
	getPage(t, "/ui/units/"+uniqueID("nope"), http.StatusNotFound)
}

func TestWebUI_PlaygroundSubmit(t *testing.T) {
	form := url.Values{"source": {"output 40 + 2\n"}}
	resp, err := http.PostForm(uiURL("/ui/playground"), form)
	if err != nil {
		t.Fatalf("POST playground: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "console.log((40 + 2));") {
		t.Errorf("expected transpiled output in playground response")
	}
}
