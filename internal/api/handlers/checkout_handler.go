package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Cheertaboi/smaphregi/internal/i18n"
	"github.com/Cheertaboi/smaphregi/internal/models"
	"github.com/Cheertaboi/smaphregi/internal/service"
)

type StartSessionRequest struct {
	Locale  string `json:"locale"`
	IDToken string `json:"idToken"`
}

type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
	Locale    string `json:"locale"`
}

type LocaleRequest struct {
	Locale string `json:"locale"`
}

type ScanRequest struct {
	Barcode string `json:"barcode"`
}

type QuantityRequest struct {
	Count int64 `json:"count"`
}

type CouponsResponse struct {
	Coupons []models.Coupon `json:"coupons"`
}

type HistoryResponse struct {
	Orders []models.OrderRecord `json:"orders"`
}

type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *zap.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

func sessionID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

// StartSession handles POST /sessions
func (h *CheckoutHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	if req.Locale == "" {
		req.Locale = r.Header.Get("Accept-Language")
	}
	sess, err := h.service.StartSession(r.Context(), req.Locale, req.IDToken)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, StartSessionResponse{SessionID: sess.ID, Locale: sess.Locale})
}

// ChangeLocale handles PUT /sessions/locale
func (h *CheckoutHandler) ChangeLocale(w http.ResponseWriter, r *http.Request) {
	var req LocaleRequest
	if err := decode(r, &req); err != nil || req.Locale == "" {
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	view, err := h.service.ChangeLocale(r.Context(), sessionID(r), req.Locale)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetCoupons handles GET /coupons
func (h *CheckoutHandler) GetCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.Coupons(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CouponsResponse{Coupons: coupons})
}

// GetCart handles GET /cart
func (h *CheckoutHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Cart(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Scan handles POST /cart/scan. An unknown barcode answers 404 with the
// unchanged cart so the camera can keep scanning.
func (h *CheckoutHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	res, err := h.service.Scan(r.Context(), sessionID(r), req.Barcode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.Found {
		writeJSON(w, http.StatusNotFound, struct {
			errorResponse
			service.ScanResult
		}{
			errorResponse: errorResponse{
				Error:   i18n.MsgProductNotFound,
				Message: i18n.Message(h.locale(r), i18n.MsgProductNotFound),
			},
			ScanResult: res,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetQuantity handles PUT /cart/items/{barcode}
func (h *CheckoutHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	view, err := h.service.SetQuantity(r.Context(), sessionID(r), chi.URLParam(r, "barcode"), req.Count)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /cart/items/{barcode}
func (h *CheckoutHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "barcode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ClearCart handles DELETE /cart
func (h *CheckoutHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ClearCart(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Checkout(r.Context(), sessionID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ConfirmPayment handles GET /payments/confirm, the payment provider's
// redirect after the shopper approves.
func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	transactionID, orderID := q.Get("transactionId"), q.Get("orderId")
	if transactionID == "" || orderID == "" {
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}
	if err := h.service.ConfirmPayment(r.Context(), sessionID(r), transactionID, orderID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orderId": orderID, "status": "paid"})
}

// GetHistory handles GET /history
func (h *CheckoutHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.History(r.Context(), sessionID(r), r.URL.Query().Get("orderId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Orders: orders})
}
