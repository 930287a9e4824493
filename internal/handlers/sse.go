package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/pages"
	"superstore-dashboard/internal/services"
)

const maxTableRows = 50

var productsTableTemplate = template.Must(template.New("productsTable").Parse(`
<div id="products-content">
<table class="modern-table">
<thead><tr><th>Product</th><th>Sales</th><th>Orders</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.ProductName}}</td>
<td><strong>SAR {{printf "%.2f" .Sales}}</strong></td>
<td>{{.Orders}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

// SSEHandlers push page payloads to the dashboard as datastar signals,
// re-rendered from the request's filter selection on every event.
type SSEHandlers struct {
	router *pages.Router
	store  *services.Store
	logger *slog.Logger
}

func NewSSEHandlers(router *pages.Router, store *services.Store, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		router: router,
		store:  store,
		logger: logger,
	}
}

func (h *SSEHandlers) renderProductsTable(data []models.ProductSales) (string, error) {
	if len(data) > maxTableRows {
		data = data[:maxTableRows]
	}

	var buf strings.Builder
	err := productsTableTemplate.Execute(&buf, data)
	return buf.String(), err
}

// HandlePage recomputes one page for the current filters and patches its
// chart signals into the dashboard.
func (h *SSEHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	page := pages.Page(r.PathValue("page"))
	sel, err := parseSelection(r)
	if err != nil {
		h.logger.Warn("bad filter selection", "error", err)
		sse.PatchElements(`<div id="page-status">Invalid filter selection</div>`)
		return
	}

	payload, err := h.router.Render(page, sel)
	if err != nil {
		h.logger.Error("render page", "page", page, "error", err)
		sse.PatchElements(`<div id="page-status">Failed to render page</div>`)
		return
	}

	signals, err := json.Marshal(map[string]any{
		"page":     string(page),
		"pageData": payload,
	})
	if err != nil {
		h.logger.Error("marshal page payload", "page", page, "error", err)
		return
	}
	sse.PatchSignals(signals)

	// The overview gets a server-rendered top-products table on top of
	// its chart signals.
	if overview, ok := payload.(pages.Overview); ok {
		html, err := h.renderProductsTable(overview.TopProducts)
		if err != nil {
			h.logger.Error("render products table", "error", err)
			return
		}
		sse.PatchElements(html)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleFilters pushes the observed filter domain into the sidebar
// signals when the dashboard loads.
func (h *SSEHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	minDate, maxDate := h.store.DateBounds()
	signals, err := json.Marshal(map[string]any{
		"regions":    h.store.Regions(),
		"categories": h.store.Categories(),
		"segments":   h.store.Segments(),
		"salesReps":  h.store.SalesReps(),
		"minDate":    minDate.Format("2006-01-02"),
		"maxDate":    maxDate.Format("2006-01-02"),
	})
	if err != nil {
		h.logger.Error("marshal filter domain", "error", err)
		return
	}
	sse.PatchSignals(signals)
	sse.PatchElements(`<div id="filters-status">Filters loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
