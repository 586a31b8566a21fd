package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/marketlens/price-intel-scraper/internal/events"
	"github.com/marketlens/price-intel-scraper/internal/models"
	"github.com/marketlens/price-intel-scraper/internal/orchestrator"
)

type Handlers struct {
	orch         *orchestrator.Orchestrator
	publisher    *events.Publisher // nil when Redis is not configured
	defaultLimit int
	logger       *slog.Logger
}

func NewHandlers(orch *orchestrator.Orchestrator, publisher *events.Publisher, defaultLimit int, logger *slog.Logger) *Handlers {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &Handlers{
		orch:         orch,
		publisher:    publisher,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// ScrapeRequest asks for one scrape run.
type ScrapeRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	Platforms []string `json:"platforms"`
	Deliver   bool     `json:"deliver"`
}

// ScrapeResponse reports the run's records alongside what failed.
type ScrapeResponse struct {
	Records  []*models.CanonicalRecord `json:"records"`
	Summary  models.RunSummary         `json:"summary"`
	Delivery *models.DeliveryReport    `json:"delivery,omitempty"`
}

// Scrape runs a scrape for the requested query and platforms. Partial
// platform failures still return 200 with the failures listed in the
// summary.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = h.defaultLimit
	}

	result := h.orch.Run(r.Context(), req.Query, req.Limit, req.Platforms)

	resp := ScrapeResponse{
		Records: result.Records,
		Summary: result.Summary,
	}
	if req.Deliver && len(result.Records) > 0 {
		report := h.orch.Deliver(r.Context(), result.Records)
		resp.Delivery = &report
	}

	if h.publisher != nil {
		if err := h.publisher.PublishRunCompleted(r.Context(), result.Summary, resp.Delivery); err != nil {
			h.logger.Error("failed to publish run event", "error", err, "run_id", result.Summary.RunID)
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// ProductRequest asks for one product-detail page scrape.
type ProductRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ProductResponse carries the scraped record, or the reason there is none.
type ProductResponse struct {
	Record *models.CanonicalRecord `json:"record,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// Product scrapes one product page on a named platform.
func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Platform == "" || req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "platform and url are required")
		return
	}

	record, err := h.orch.ScrapeProduct(r.Context(), req.Platform, req.URL)
	if err != nil {
		h.logger.Error("product scrape failed", "error", err, "url", req.URL)
		h.respondJSON(w, http.StatusOK, ProductResponse{Error: err.Error()})
		return
	}

	h.respondJSON(w, http.StatusOK, ProductResponse{Record: record})
}

// Platforms lists the configured marketplace tags.
func (h *Handlers) Platforms(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string][]string{
		"platforms": h.orch.Platforms(),
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
