package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireMethod(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/labels", nil)

	if RequireMethod(rr, req, http.MethodGet, http.MethodHead) {
		t.Fatal("Expected DELETE to be rejected")
	}
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Expected Allow 'GET, HEAD', got %q", got)
	}
}

func TestRequireQuery(t *testing.T) {
	rr := httptest.NewRecorder()
	v, ok := RequireQuery(rr, httptest.NewRequest(http.MethodGet, "/api/search/company?q=++infy+", nil), "q")
	if !ok || v != "infy" {
		t.Errorf("Expected trimmed 'infy', got %q (ok=%v)", v, ok)
	}

	rr = httptest.NewRecorder()
	if _, ok := RequireQuery(rr, httptest.NewRequest(http.MethodGet, "/api/search/company?q=+", nil), "q"); ok {
		t.Error("Expected blank q to be rejected")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 10, true},
		{"n=3", 3, true},
		{"n=-1", -1, true},
		{"n=three", 0, false},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		got, ok := QueryInt(rr, httptest.NewRequest(http.MethodGet, "/api/top?"+tt.query, nil), "n", 10)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("QueryInt(%q) = %d, %v; want %d, %v", tt.query, got, ok, tt.want, tt.wantOK)
		}
	}
}
