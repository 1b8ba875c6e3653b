package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Cheertaboi/smaphregi/internal/i18n"
	"github.com/Cheertaboi/smaphregi/internal/service"
	"github.com/Cheertaboi/smaphregi/internal/session"
	"github.com/Cheertaboi/smaphregi/internal/transport"
)

// SessionHeader carries the session id on every request after POST /sessions.
const SessionHeader = "X-Session-ID"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// locale picks the session's language, falling back to Accept-Language for
// requests without a live session.
func (h *CheckoutHandler) locale(r *http.Request) string {
	if sid := sessionID(r); sid != "" {
		if sess, err := h.service.Session(r.Context(), sid); err == nil {
			return sess.Locale
		}
	}
	return r.Header.Get("Accept-Language")
}

func (h *CheckoutHandler) writeError(w http.ResponseWriter, r *http.Request, code int, key string) {
	writeJSON(w, code, errorResponse{
		Error:   key,
		Message: i18n.Message(h.locale(r), key),
	})
}

// fail maps a service error to its status and message key.
func (h *CheckoutHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, i18n.MsgSessionNotFound)
	case errors.Is(err, transport.ErrTransport):
		h.writeError(w, r, http.StatusBadGateway, i18n.MsgBackendUnavailable)
	case errors.Is(err, service.ErrEmptyCart):
		h.writeError(w, r, http.StatusConflict, i18n.MsgEmptyCart)
	case errors.Is(err, service.ErrOrderMismatch):
		h.writeError(w, r, http.StatusConflict, i18n.MsgOrderMismatch)
	case errors.Is(err, service.ErrInvalidBarcode):
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBarcode)
	case errors.Is(err, service.ErrInvalidQuantity):
		h.writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		h.writeError(w, r, http.StatusInternalServerError, i18n.MsgInternalError)
	}
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
