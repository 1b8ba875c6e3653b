package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/smaphregi/internal/models"
)

func newBackend(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, 5*time.Second)
}

func TestLookupBarcode(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, pathBarcode, r.URL.Path)
		assert.Equal(t, "4901234567894", r.URL.Query().Get("barcode"))
		assert.Equal(t, "ja", r.URL.Query().Get("locale"))
		w.Write([]byte(`{"ImageUrl":"https://img/1.png","Name":"お茶","Price":150,"discountWay":1,"discountRate":10}`))
	})

	p, err := c.LookupBarcode(context.Background(), "4901234567894", "ja")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "お茶", p.Name)
	assert.Equal(t, int64(150), p.Price)
	assert.Equal(t, models.DiscountPercentage, p.DiscountWay)
	assert.Equal(t, int64(10), p.DiscountRate)
}

func TestLookupBarcodeNotFound(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"404":   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
		"null":  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("null")) },
		"empty": func(w http.ResponseWriter, r *http.Request) {},
		"array": func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("[]")) },
	} {
		t.Run(name, func(t *testing.T) {
			p, err := newBackend(t, h).LookupBarcode(context.Background(), "x", "en")
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestServerErrorIsTransportError(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := c.LookupBarcode(context.Background(), "x", "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "boom", se.Body)
}

func TestNetworkErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewHTTPClient(srv.URL, time.Second)

	_, err := c.FetchCoupons(context.Background(), "ja")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSubmitCart(t *testing.T) {
	coupon := "c-1"
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathCart, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got CartSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "order-1", got.OrderID)
		assert.Equal(t, "tok", got.IDToken)
		require.Len(t, got.Items, 2)
		assert.Equal(t, int64(3), got.Items[0].Quantity)
		require.NotNil(t, got.Items[0].CouponID)
		assert.Equal(t, "c-1", *got.Items[0].CouponID)
		assert.Nil(t, got.Items[1].CouponID)
		assert.Nil(t, got.CouponID)
		w.Write([]byte(`{"ok":true}`))
	})

	out, err := c.SubmitCart(context.Background(), CartSubmission{
		Locale:  "ja",
		IDToken: "tok",
		OrderID: "order-1",
		Items: []CartLine{
			{Barcode: "1", Quantity: 3, CouponID: &coupon},
			{Barcode: "2", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
}

func TestRequestPayment(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathPaymentRequest, r.URL.Path)
		w.Write([]byte(`{"info":{"paymentUrl":{"web":"https://pay.example/web","app":"app://pay"}}}`))
	})

	u, err := c.RequestPayment(context.Background(), PaymentRequest{IDToken: "tok", OrderID: "o"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/web", u)
}

func TestRequestPaymentMissingURL(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":{}}`))
	})

	_, err := c.RequestPayment(context.Background(), PaymentRequest{OrderID: "o"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestConfirmPayment(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathPaymentConfirm, r.URL.Path)
		var got PaymentConfirmation
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "tx-9", got.TransactionID)
		w.Write([]byte(`{"returnCode":"0000"}`))
	})

	out, err := c.ConfirmPayment(context.Background(), PaymentConfirmation{TransactionID: "tx-9", OrderID: "o"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "0000")
}

func TestFetchHistory(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathHistory, r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("idToken"))
		assert.Equal(t, "o-1", r.URL.Query().Get("orderId"))
		w.Write([]byte(`[{"paidDateTime":"2024-05-01 10:00","orderId":"o-1","amount":270,"items":[{"barcode":"1","name":"n","price":100,"quantity":3,"discountWay":1,"discountRate":10}]}]`))
	})

	orders, err := c.FetchHistory(context.Background(), "tok", "o-1", "ja")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(270), orders[0].Amount)
	assert.Nil(t, orders[0].DiscountWay)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(3), orders[0].Items[0].Quantity)
}

func TestFetchHistoryOmitsEmptyOrderID(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["orderId"]
		assert.False(t, ok)
		w.Write([]byte(`[]`))
	})

	orders, err := c.FetchHistory(context.Background(), "tok", "", "ja")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFetchCoupons(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en", r.URL.Query().Get("locale"))
		w.Write([]byte(`[{"id":"a","barcode":"123","discountWay":2,"discountRate":30},{"id":"b","barcode":"*","discountWay":1,"discountRate":5}]`))
	})

	coupons, err := c.FetchCoupons(context.Background(), "en")
	require.NoError(t, err)
	require.Len(t, coupons, 2)
	assert.Equal(t, models.DiscountFlatAmount, coupons[0].Method)
	assert.True(t, coupons[1].IsStorewide())
}
