// Package chi exposes the marketgate application surface over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/marketgate/internal/domain"
	dombatch "github.com/kailas-cloud/marketgate/internal/domain/batch"
	"github.com/kailas-cloud/marketgate/internal/safecall"
	bulkuc "github.com/kailas-cloud/marketgate/internal/usecase/bulk"
	healthuc "github.com/kailas-cloud/marketgate/internal/usecase/health"
	promptuc "github.com/kailas-cloud/marketgate/internal/usecase/prompt"
)

// InfoResolver is the product info source the server reads from; the
// binary wires the cached decorator here.
type InfoResolver interface {
	GetInfo(ctx context.Context, id int64, infoType domain.InfoType) (*domain.ProductInfo, error)
}

// Server holds the HTTP handlers for the application surface.
type Server struct {
	prompts *promptuc.Service
	bulk    *bulkuc.Service
	info    InfoResolver
	health  *healthuc.Service
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	prompts *promptuc.Service,
	bulk *bulkuc.Service,
	info InfoResolver,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{prompts: prompts, bulk: bulk, info: info, health: health, logger: logger}
}

// Mount attaches all routes to the router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.getHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/products/{id}", s.getProduct)
		r.Route("/requesters/{rid}", func(r chi.Router) {
			r.Get("/passes/{pid}", s.getPassOwnership)
			r.Post("/prompts/{kind}", s.postPrompt)
			r.Post("/purchases/bulk", s.postBulkPurchase)
		})
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// getProduct handles GET /v1/products/{id}?type=.
func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid product id")
		return
	}
	infoType, err := domain.ParseInfoType(queryOr(r, "type", string(domain.InfoAsset)))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	info, err := s.info.GetInfo(r.Context(), id, infoType)
	if err != nil {
		s.handleCallError(w, err)
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "product_not_found", "no such product")
		return
	}
	writeJSON(w, http.StatusOK, productToWire(info))
}

// getPassOwnership handles GET /v1/requesters/{rid}/passes/{pid}.
func (s *Server) getPassOwnership(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.requesterFromPath(w, r)
	if !ok {
		return
	}
	passID, err := pathInt64(r, "pid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid pass id")
		return
	}

	owned, err := s.prompts.HasPass(r.Context(), requester, passID)
	if err != nil {
		s.handleCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"owned": owned})
}

type promptWire struct {
	ItemID        int64  `json:"itemId"`
	RequesterName string `json:"requesterName,omitempty"`
}

// postPrompt handles POST /v1/requesters/{rid}/prompts/{kind}.
// Recognized kinds: asset, pass, product, bundle, subscription, premium,
// subscription-cancel.
func (s *Server) postPrompt(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.requesterFromPath(w, r)
	if !ok {
		return
	}

	var req promptWire
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	requester.Name = req.RequesterName

	result := promptuc.ResultPrompted
	var err error

	switch kind := chi.URLParam(r, "kind"); kind {
	case "pass":
		result, err = s.prompts.PromptPass(r.Context(), requester, req.ItemID)
	case "premium":
		err = s.prompts.PromptPremium(r.Context(), requester, req.ItemID)
	case "subscription-cancel":
		err = s.prompts.CancelSubscription(r.Context(), requester, req.ItemID)
	default:
		parsed, perr := domain.ParseKind(kind)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", perr.Error())
			return
		}
		_, err = s.prompts.Prompt(r.Context(), requester, domain.PurchaseItem{Kind: parsed, ID: req.ItemID})
	}
	if err != nil {
		s.handleCallError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"result": string(result)})
}

type bulkItemWire struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

type bulkRequestWire struct {
	RequesterName string         `json:"requesterName,omitempty"`
	Items         []bulkItemWire `json:"items"`
	StopOnFailure bool           `json:"stopOnFailure"`
	TimeoutMs     int64          `json:"timeoutMs,omitempty"`
}

type bulkOutcomeWire struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type bulkResultWire struct {
	RequesterID   int64             `json:"requesterId"`
	OverallStatus string            `json:"overallStatus"`
	Outcomes      []bulkOutcomeWire `json:"outcomes"`
}

// postBulkPurchase handles POST /v1/requesters/{rid}/purchases/bulk.
// The batch runs within the request; the per-item timeout bounds the wait.
func (s *Server) postBulkPurchase(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.requesterFromPath(w, r)
	if !ok {
		return
	}

	var req bulkRequestWire
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}
	requester.Name = req.RequesterName

	items := make([]domain.PurchaseItem, len(req.Items))
	for i, it := range req.Items {
		kind, err := domain.ParseKind(it.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		items[i] = domain.PurchaseItem{Kind: kind, ID: it.ID}
	}

	opts := bulkuc.Options{
		StopOnFailure: req.StopOnFailure,
		ItemTimeout:   time.Duration(req.TimeoutMs) * time.Millisecond,
	}

	res, err := s.bulk.Run(r.Context(), requester, items, opts)
	if err != nil {
		// Only validation failures reject a bulk invocation.
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, batchToWire(res))
}

func (s *Server) requesterFromPath(w http.ResponseWriter, r *http.Request) (domain.Requester, bool) {
	rid, err := pathInt64(r, "rid")
	if err != nil || rid <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid requester id")
		return domain.Requester{}, false
	}
	return domain.Requester{ID: rid}, true
}

// handleCallError maps platform call failures onto HTTP statuses:
// retriable failures are gateway problems, the rest are rejected calls.
func (s *Server) handleCallError(w http.ResponseWriter, err error) {
	if ce, ok := safecall.AsCallError(err); ok {
		if ce.Retriable {
			writeError(w, http.StatusBadGateway, "platform_unavailable", ce.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "platform_rejected", ce.Message)
		return
	}
	if errors.Is(err, domain.ErrUnknownKind) || errors.Is(err, domain.ErrUnknownInfoType) {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	s.logger.Error("Unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func batchToWire(res dombatch.Result) bulkResultWire {
	outcomes := make([]bulkOutcomeWire, len(res.Outcomes()))
	for i, o := range res.Outcomes() {
		outcomes[i] = bulkOutcomeWire{
			Kind:   string(o.Item().Kind),
			ID:     o.Item().ID,
			Status: string(o.Status()),
			Detail: o.Detail(),
		}
	}
	return bulkResultWire{
		RequesterID:   res.Requester().ID,
		OverallStatus: string(res.Overall()),
		Outcomes:      outcomes,
	}
}

type productWire struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ItemType     string `json:"itemType"`
	Price        int64  `json:"price"`
	IsForSale    bool   `json:"isForSale"`
	IsPublicSale bool   `json:"isPublicSale"`
	Creator      struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"creator"`
	Created string `json:"created,omitempty"`
	Updated string `json:"updated,omitempty"`
}

func productToWire(info *domain.ProductInfo) productWire {
	p := productWire{
		ID:           info.ID,
		Name:         info.Name,
		Description:  info.Description,
		ItemType:     string(info.ItemType),
		Price:        info.Price,
		IsForSale:    info.IsForSale,
		IsPublicSale: info.IsPublicSale,
	}
	p.Creator.ID = info.Creator.ID
	p.Creator.Name = info.Creator.Name
	p.Creator.Type = info.Creator.Type
	if !info.Created.IsZero() {
		p.Created = info.Created.UTC().Format(time.RFC3339)
	}
	if !info.Updated.IsZero() {
		p.Updated = info.Updated.UTC().Format(time.RFC3339)
	}
	return p
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func queryOr(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
