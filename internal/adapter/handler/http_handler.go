package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ratthapon/storefront/internal/core/domain"
	"github.com/ratthapon/storefront/internal/core/service"
	"github.com/ratthapon/storefront/internal/port"
)

const sessionCookie = "cart_session"

type HTTPHandler struct {
	carts   *service.CartService
	catalog port.CatalogRepository
	logger  *zap.Logger
}

type productResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
}

type updateItemRequest struct {
	ProductID int64 `json:"productId"`
	Delta     int   `json:"delta"`
}

type membershipRequest struct {
	IsMember bool `json:"isMember"`
}

type checkoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type checkoutRequest struct {
	Items    []checkoutItem `json:"items"`
	IsMember bool           `json:"isMember"`
}

type discountsResponse struct {
	Bulk   float64 `json:"bulk"`
	Member float64 `json:"member"`
}

type checkoutResponse struct {
	SubTotal   float64           `json:"subTotal"`
	Discounts  discountsResponse `json:"discounts"`
	FinalPrice float64           `json:"finalPrice"`
}

type cartLineResponse struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	LineTotal float64 `json:"lineTotal,omitempty"`
}

type cartResponse struct {
	Items         []cartLineResponse `json:"items"`
	IsMember      bool               `json:"isMember"`
	SummaryStatus string             `json:"summaryStatus"`
	Summary       *checkoutResponse  `json:"summary,omitempty"`
	SummaryError  string             `json:"summaryError,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(carts *service.CartService, catalog port.CatalogRepository, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{carts: carts, catalog: catalog, logger: logger}
}

// Routes builds the API surface. Route patterns carry the method so the
// handlers themselves stay free of method checks.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /products", h.ListProducts)
	mux.HandleFunc("POST /checkout", h.Checkout)
	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddItem)
	mux.HandleFunc("PATCH /api/cart/items", h.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveItem)
	mux.HandleFunc("POST /api/cart/clear", h.ClearCart)
	mux.HandleFunc("PUT /api/cart/membership", h.SetMembership)
	mux.HandleFunc("POST /api/cart/checkout", h.CheckoutCart)
	return mux
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Success: false,
			Message: "catalog unavailable",
		})
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price.InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Checkout is the stateless pricing boundary: the caller supplies the
// lines and the membership flag, and gets the priced summary back. It
// never touches session carts.
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity < 1 {
			writeJSON(w, http.StatusBadRequest, statusResponse{
				Success: false,
				Message: "items require productId > 0 and quantity >= 1",
			})
			return
		}
		lines = append(lines, domain.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	summary, err := h.carts.Price(r.Context(), lines, req.IsMember)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCheckoutResponse(summary))
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	view, err := h.carts.GetCart(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("get cart failed", zap.String("session", sessionID), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Success: false,
			Message: "catalog unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Success: false,
			Message: "productId is required",
		})
		return
	}

	h.carts.AddToCart(sessionID, req.ProductID)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "item added"})
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Success: false,
			Message: "productId is required",
		})
		return
	}

	h.carts.UpdateQuantity(sessionID, req.ProductID, req.Delta)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "quantity updated"})
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || productID <= 0 {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Success: false,
			Message: "invalid product id",
		})
		return
	}

	h.carts.RemoveFromCart(sessionID, productID)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "item removed"})
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	h.carts.ClearCart(sessionID)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "cart cleared"})
}

func (h *HTTPHandler) SetMembership(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	h.carts.SetMembership(sessionID, req.IsMember)
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "membership updated"})
}

func (h *HTTPHandler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	summary, err := h.carts.Checkout(r.Context(), sessionID)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCheckoutResponse(summary))
}

// writeCheckoutError maps pricing failures onto distinguishable statuses;
// a failed calculation never produces a summary body the caller could
// mistake for a zero-cost order.
func (h *HTTPHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var resolution *service.ResolutionError
	switch {
	case errors.As(err, &resolution):
		writeJSON(w, http.StatusUnprocessableEntity, statusResponse{
			Success: false,
			Message: fmt.Sprintf("product %d not found in catalog", resolution.ProductID),
		})
	case errors.Is(err, service.ErrCatalogUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{
			Success: false,
			Message: "catalog unavailable",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, statusResponse{
			Success: false,
			Message: "internal error",
		})
	}
}

// sessionID reads the cart session cookie, minting a fresh session on
// first contact.
func (h *HTTPHandler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return id
}

func toCheckoutResponse(summary domain.PriceSummary) checkoutResponse {
	return checkoutResponse{
		SubTotal: summary.SubTotal.InexactFloat64(),
		Discounts: discountsResponse{
			Bulk:   summary.Discounts.Bulk.InexactFloat64(),
			Member: summary.Discounts.Member.InexactFloat64(),
		},
		FinalPrice: summary.FinalPrice.InexactFloat64(),
	}
}

func toCartResponse(view service.CartView) cartResponse {
	out := cartResponse{
		Items:         make([]cartLineResponse, 0, len(view.Lines)),
		IsMember:      view.Member,
		SummaryStatus: string(view.Summary.Status),
	}

	for _, lv := range view.Lines {
		line := cartLineResponse{
			ProductID: lv.Line.ProductID,
			Quantity:  lv.Line.Quantity,
		}
		if lv.Product != nil {
			line.Name = lv.Product.Name
			line.UnitPrice = lv.Product.Price.InexactFloat64()
			line.LineTotal = lv.LineTotal.InexactFloat64()
		}
		out.Items = append(out.Items, line)
	}

	if view.Summary.Status == domain.SummaryReady && view.Summary.Summary != nil {
		summary := toCheckoutResponse(*view.Summary.Summary)
		out.Summary = &summary
	}
	if view.Summary.Status == domain.SummaryFailed && view.Summary.Err != nil {
		out.SummaryError = view.Summary.Err.Error()
	}

	return out
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
