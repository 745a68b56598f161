package handler

import (
	"encoding/json"
	"net/http"

	"warehousesim/internal/core/domain"
	"warehousesim/internal/core/service"
)

type HTTPHandler struct {
	ledger    *service.InventoryLedger
	allocator *service.RackAllocator
}

type ReportResponse struct {
	Items     []domain.Item `json:"items"`
	Racks     []domain.Rack `json:"racks"`
	ItemTotal int           `json:"item_total"`
	RackTotal int           `json:"rack_total"`
}

func NewHTTPHandler(ledger *service.InventoryLedger, allocator *service.RackAllocator) *HTTPHandler {
	return &HTTPHandler{ledger: ledger, allocator: allocator}
}

// Report serves a structured snapshot of the ledger and rack state for
// observability tooling.
func (h *HTTPHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := ReportResponse{
		Items: h.ledger.Snapshot(),
		Racks: h.allocator.Snapshot(),
	}
	for _, item := range resp.Items {
		resp.ItemTotal += item.Quantity
	}
	for _, rack := range resp.Racks {
		resp.RackTotal += rack.Capacity
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
