package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Cheertaboi/smaphregi/internal/models"
)

const (
	pathBarcode        = "/barcode"
	pathCart           = "/cart"
	pathPaymentRequest = "/payment/request"
	pathPaymentConfirm = "/payment/confirm"
	pathHistory        = "/history"
	pathCoupons        = "/coupons"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// backend implements every Transport operation once; the concrete clients
// differ only in base URL and in how each request is decorated.
type backend struct {
	httpClient *http.Client
	baseURL    string
	decorate   func(req *http.Request, locale string) error
}

// do sends one JSON call. locale is the shopper locale the call is made for.
func (b *backend) do(ctx context.Context, method, path, locale string, query url.Values, body, out interface{}) error {
	u := strings.TrimRight(b.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.decorate != nil {
		if err := b.decorate(req, locale); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, path, err)
	}
	return nil
}

func (b *backend) LookupBarcode(ctx context.Context, barcode, locale string) (*models.Product, error) {
	q := url.Values{"barcode": {barcode}, "locale": {locale}}
	var raw json.RawMessage
	if err := b.do(ctx, http.MethodGet, pathBarcode, locale, q, nil, &raw); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if isEmptyJSON(raw) {
		return nil, nil
	}
	var p models.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: decode product: %v", ErrTransport, err)
	}
	return &p, nil
}

func (b *backend) SubmitCart(ctx context.Context, req CartSubmission) (json.RawMessage, error) {
	var out json.RawMessage
	if err := b.do(ctx, http.MethodPost, pathCart, req.Locale, nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *backend) RequestPayment(ctx context.Context, req PaymentRequest) (string, error) {
	var out paymentResponse
	if err := b.do(ctx, http.MethodPost, pathPaymentRequest, req.Locale, nil, req, &out); err != nil {
		return "", err
	}
	if out.Info.PaymentURL.Web == "" {
		return "", fmt.Errorf("%w: payment response has no web url", ErrTransport)
	}
	return out.Info.PaymentURL.Web, nil
}

func (b *backend) ConfirmPayment(ctx context.Context, req PaymentConfirmation) (json.RawMessage, error) {
	var out json.RawMessage
	if err := b.do(ctx, http.MethodPost, pathPaymentConfirm, req.Locale, nil, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *backend) FetchHistory(ctx context.Context, idToken, orderID, locale string) ([]models.BackendOrder, error) {
	q := url.Values{"idToken": {idToken}, "locale": {locale}}
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	var out []models.BackendOrder
	if err := b.do(ctx, http.MethodGet, pathHistory, locale, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *backend) FetchCoupons(ctx context.Context, locale string) ([]models.Coupon, error) {
	var out []models.Coupon
	if err := b.do(ctx, http.MethodGet, pathCoupons, locale, url.Values{"locale": {locale}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
