package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/pages"
	"superstore-dashboard/internal/services"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTestStore(schema services.Schema) *services.Store {
	store := services.NewStore()
	store.SetRows([]models.Transaction{
		{Region: "West", Category: "Furniture", Segment: "Consumer", OrderDate: day(2023, 1, 15), Sales: 100, Profit: 20, State: "California", City: "Los Angeles", ProductName: "Chair", SubCategory: "Chairs", SalesRep: "Alice", Bonus: 50, Mobile: "+15550001111", Email: "a@example.com"},
		{Region: "East", Category: "Technology", Segment: "Corporate", OrderDate: day(2023, 2, 10), Sales: 500, Profit: 120, State: "New York", City: "Albany", ProductName: "Laptop", SubCategory: "Machines", SalesRep: "Bob", Bonus: 80, Mobile: "+15550002222", Email: "b@example.com"},
	}, schema)
	return store
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestAPIHandlers(schema services.Schema) (*APIHandlers, *services.Store) {
	store := createTestStore(schema)
	router := pages.NewRouter(services.NewAnalytics(store), testLogger())
	return NewAPIHandlers(router, store, testLogger()), store
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestAPIHandlers_HandlePage_Overview(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{HasSalesRep: true})

	req := httptest.NewRequest(http.MethodGet, "/api/pages/overview?region=West", nil)
	req.SetPathValue("page", "overview")
	w := httptest.NewRecorder()

	h.HandlePage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data object in response")
	}
	kpis, ok := data["kpis"].(map[string]any)
	if !ok {
		t.Fatal("expected kpis in overview payload")
	}
	if kpis["total_sales"].(float64) != 100 {
		t.Errorf("expected West-only total sales 100, got %v", kpis["total_sales"])
	}
}

func TestAPIHandlers_HandlePage_UnknownPage(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{})

	req := httptest.NewRequest(http.MethodGet, "/api/pages/bogus", nil)
	req.SetPathValue("page", "bogus")
	w := httptest.NewRecorder()

	h.HandlePage(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	response := decodeEnvelope(t, w)
	if success, ok := response["success"].(bool); !ok || success {
		t.Error("expected success=false in response")
	}
}

func TestAPIHandlers_HandlePage_BadDates(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{})

	tests := []struct {
		name  string
		query string
	}{
		{"malformed start", "start=yesterday"},
		{"malformed top_n", "top_n=ten"},
		{"start after end", "start=2023-03-01&end=2023-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/pages/overview?"+tt.query, nil)
			req.SetPathValue("page", "overview")
			w := httptest.NewRecorder()

			h.HandlePage(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestAPIHandlers_HandlePage_EmptiedSelector(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{})

	// region present but empty: deliberately emptied, matches nothing.
	req := httptest.NewRequest(http.MethodGet, "/api/pages/overview?region=", nil)
	req.SetPathValue("page", "overview")
	w := httptest.NewRecorder()

	h.HandlePage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	kpis := data["kpis"].(map[string]any)
	if kpis["record_count"].(float64) != 0 {
		t.Errorf("emptied selector should yield an empty view, got %v records", kpis["record_count"])
	}
	if kpis["has_data"].(bool) {
		t.Error("empty view must report has_data=false")
	}
}

func TestAPIHandlers_HandlePages(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{})

	req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	w := httptest.NewRecorder()

	h.HandlePages(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	menu, ok := response["data"].([]any)
	if !ok || len(menu) != 6 {
		t.Fatalf("expected 6 pages in menu, got %v", response["data"])
	}

	first := menu[0].(map[string]any)
	if first["id"] != "overview" || first["title"] != "Overview" {
		t.Errorf("unexpected first menu entry %v", first)
	}
}

func TestAPIHandlers_HandleFilters(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{HasSalesRep: true})

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	w := httptest.NewRecorder()

	h.HandleFilters(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)

	regions := data["regions"].([]any)
	if len(regions) != 2 {
		t.Errorf("expected 2 distinct regions, got %v", regions)
	}
	if data["min_date"] != "2023-01-15" || data["max_date"] != "2023-02-10" {
		t.Errorf("unexpected date bounds %v..%v", data["min_date"], data["max_date"])
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Error("expected healthy status in response")
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h, _ := createTestAPIHandlers(services.Schema{HasMobile: true})

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decodeEnvelope(t, w)
	data := response["data"].(map[string]any)
	if data["record_count"].(float64) != 2 {
		t.Errorf("expected record_count=2, got %v", data["record_count"])
	}
}

func TestParseSelection_MultiValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/pages/overview?region=West&region=East&category=Furniture,Technology", nil)

	sel, err := parseSelection(req)
	if err != nil {
		t.Fatalf("parseSelection() failed: %v", err)
	}

	if len(sel.Regions) != 2 {
		t.Errorf("expected 2 regions, got %v", sel.Regions)
	}
	if len(sel.Categories) != 2 {
		t.Errorf("comma-separated categories should split, got %v", sel.Categories)
	}
	if sel.Segments != nil {
		t.Error("absent parameter should stay nil (all values)")
	}
}
