package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/medtrack/notify/internal/api/middleware"
	"github.com/medtrack/notify/internal/domain"
	"github.com/medtrack/notify/internal/service"
)

// ProductHandler exposes the product lifecycle operations that drive
// the notification pipeline.
type ProductHandler struct {
	svc    *service.ProductService
	logger *zap.Logger
}

func NewProductHandler(svc *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/products
//
// @Summary  Register a product and schedule its expiry alert
// @Tags     products
// @Accept   json
// @Produce  json
// @Param    body  body      domain.CreateProductRequest  true  "Product payload"
// @Success  201   {object}  domain.Product
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := h.svc.OnProductCreated(r.Context(), &req)
	if err != nil {
		h.logger.Warn("create product failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/v1/products/{id}
//
// @Summary  Update a product and re-schedule its expiry alert
// @Tags     products
// @Accept   json
// @Produce  json
// @Param    id    path      int             true  "Product ID"
// @Param    body  body      domain.Product  true  "Updated product"
// @Success  200   {object}  domain.Product
// @Failure  404   {object}  map[string]string
// @Router   /api/v1/products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.ID = id

	if err := h.svc.OnProductUpdated(r.Context(), &p); err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &p)
}

// Delete handles DELETE /api/v1/products/{id}
//
// @Summary  Remove a product and withdraw its expiry alert
// @Tags     products
// @Param    id  path  int  true  "Product ID"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.OnProductDeleted(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/products
//
// @Summary  List a user's tracked products
// @Tags     products
// @Produce  json
// @Param    user_id  query     int  true  "User ID"
// @Success  200      {object}  map[string]any
// @Router   /api/v1/products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	products, err := h.svc.Products(r.Context(), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  products,
		"total": len(products),
	})
}

// LowStock handles GET /api/v1/products/low-stock
//
// @Summary  List a user's low stock products and notify for each
// @Tags     products
// @Produce  json
// @Param    user_id  query     int  true  "User ID"
// @Success  200      {object}  map[string]any
// @Router   /api/v1/products/low-stock [get]
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	products, err := h.svc.OnLowStockQueried(r.Context(), userID)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  products,
		"total": len(products),
	})
}

// RecordUsage handles POST /api/v1/products/{id}/usage
//
// @Summary  Record one dose taken, notifying on low or zero stock
// @Tags     products
// @Produce  json
// @Param    id   path      int  true  "Product ID"
// @Success  200  {object}  domain.Product
// @Failure  404  {object}  map[string]string
// @Failure  409  {object}  map[string]string
// @Router   /api/v1/products/{id}/usage [post]
func (h *ProductHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.OnUsageRecorded(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user_id")
		return 0, false
	}
	return userID, true
}
