package main

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
	"superstore-dashboard/internal/notify"
	"superstore-dashboard/internal/pages"
	"superstore-dashboard/internal/server"
	"superstore-dashboard/internal/services"
)

func newTestServer() *server.Server {
	store := services.NewStore()
	store.SetRows([]models.Transaction{
		{
			Region:      "West",
			Category:    "Furniture",
			Segment:     "Consumer",
			OrderDate:   time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC),
			Sales:       100,
			Profit:      20,
			Discount:    0.1,
			Quantity:    2,
			State:       "California",
			City:        "Los Angeles",
			ProductName: "Chair",
			SubCategory: "Chairs",
			SalesRep:    "Alice",
			Bonus:       50,
		},
		{
			Region:      "East",
			Category:    "Technology",
			Segment:     "Corporate",
			OrderDate:   time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
			Sales:       500,
			Profit:      120,
			Discount:    0,
			Quantity:    1,
			State:       "New York",
			City:        "Albany",
			ProductName: "Laptop",
			SubCategory: "Machines",
			SalesRep:    "Bob",
			Bonus:       80,
		},
	}, services.Schema{HasSalesRep: true, HasBonus: true})

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	router := pages.NewRouter(services.NewAnalytics(store), logger)
	dispatcher := notify.NewDispatcher(logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	return server.NewServer(store, router, dispatcher, logger, templateHandlers)
}

func TestServer_Dashboard(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "Superstore Analytics") {
		t.Error("expected dashboard shell in response")
	}
}

func TestServer_PageRoutes(t *testing.T) {
	srv := newTestServer()

	for _, page := range []string{"overview", "sales", "profit", "geo", "reps", "notifications"} {
		t.Run(page, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/pages/"+page, nil)
			w := httptest.NewRecorder()

			srv.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
			}

			var response map[string]any
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if success, ok := response["success"].(bool); !ok || !success {
				t.Error("expected success=true in response")
			}
		})
	}
}

func TestServer_OverviewFilteredEndToEnd(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/pages/overview?region=West&start=2023-02-01&end=2023-03-31", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	kpis := response["data"].(map[string]any)["kpis"].(map[string]any)
	if kpis["total_sales"].(float64) != 100 {
		t.Errorf("expected West-only total sales 100, got %v", kpis["total_sales"])
	}
}

func TestServer_NotificationPrecondition(t *testing.T) {
	srv := newTestServer()

	// The test dataset has no Mobile column, so SMS must be refused
	// before any send is attempted.
	body := `{"channel":"sms","message":"Your bonus is SAR {bonus}","sms":{"account_sid":"AC1","auth_token":"tok","from_number":"+15550009999"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/notifications/send", strings.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, w.Code, w.Body.String())
	}
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestServer_UnknownPage(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/pages/bogus", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
