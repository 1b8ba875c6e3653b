// Package transport reaches the remote checkout backend. Two interchangeable
// clients exist: a direct HTTP client against the function endpoints and an
// API-gateway client that authenticates every call with an API key and a
// short-lived signed token.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Cheertaboi/smaphregi/internal/models"
)

// ErrTransport wraps every network failure or non-2xx response.
var ErrTransport = errors.New("backend call failed")

type CartLine struct {
	Barcode  string  `json:"barcode"`
	Quantity int64   `json:"quantity"`
	CouponID *string `json:"couponId"`
}

type CartSubmission struct {
	Locale   string     `json:"locale"`
	IDToken  string     `json:"idToken"`
	Items    []CartLine `json:"items"`
	CouponID *string    `json:"couponId"`
	OrderID  string     `json:"orderId"`
}

type PaymentRequest struct {
	IDToken string `json:"idToken"`
	OrderID string `json:"orderId"`
	Locale  string `json:"locale"`
}

type PaymentConfirmation struct {
	TransactionID string `json:"transactionId"`
	OrderID       string `json:"orderId"`
	Locale        string `json:"locale"`
}

// Transport is the capability set the checkout logic needs from the backend.
// LookupBarcode returns (nil, nil) when the barcode is unknown.
type Transport interface {
	LookupBarcode(ctx context.Context, barcode, locale string) (*models.Product, error)
	SubmitCart(ctx context.Context, req CartSubmission) (json.RawMessage, error)
	RequestPayment(ctx context.Context, req PaymentRequest) (string, error)
	ConfirmPayment(ctx context.Context, req PaymentConfirmation) (json.RawMessage, error)
	FetchHistory(ctx context.Context, idToken, orderID, locale string) ([]models.BackendOrder, error)
	FetchCoupons(ctx context.Context, locale string) ([]models.Coupon, error)
}

type paymentResponse struct {
	Info struct {
		PaymentURL struct {
			Web string `json:"web"`
		} `json:"paymentUrl"`
	} `json:"info"`
}

var (
	_ Transport = (*HTTPClient)(nil)
	_ Transport = (*GatewayClient)(nil)
)
