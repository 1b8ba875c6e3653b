package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("gateway-secret")

func TestGatewayBase(t *testing.T) {
	assert.Equal(t, "https://gw.example/prod/smaphregi", gatewayBase(GatewayConfig{URL: "https://gw.example/", Stage: "/prod/", APIName: "smaphregi"}))
	assert.Equal(t, "https://gw.example", gatewayBase(GatewayConfig{URL: "https://gw.example"}))
}

func TestGatewayClientSignsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dev/regi"+pathCoupons, r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))

		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Bearer "))

		claims := &GatewayClaims{}
		tok, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			return testSecret, nil
		})
		require.NoError(t, err)
		assert.True(t, tok.Valid)
		assert.Equal(t, "ja", claims.Locale)
		assert.Equal(t, gatewayIssuer, claims.Issuer)
		assert.True(t, claims.VerifyAudience("regi", true))

		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{
		URL:           srv.URL,
		Stage:         "dev",
		APIName:       "regi",
		APIKey:        "key-1",
		SigningSecret: testSecret,
		Timeout:       5 * time.Second,
	})

	coupons, err := c.FetchCoupons(context.Background(), "ja")
	require.NoError(t, err)
	assert.Empty(t, coupons)
}

func TestGatewayTokenExpiry(t *testing.T) {
	c := NewGatewayClient(GatewayConfig{APIName: "regi", SigningSecret: testSecret, TokenTTL: 30 * time.Second})
	issued := time.Now().Add(-time.Hour)
	c.now = func() time.Time { return issued }

	s, err := c.Token("en")
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(s, &GatewayClaims{}, func(t *jwt.Token) (interface{}, error) {
		return testSecret, nil
	})
	var ve *jwt.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotZero(t, ve.Errors&jwt.ValidationErrorExpired)
}

func TestGatewayClientPropagatesStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{URL: srv.URL, SigningSecret: testSecret})
	_, err := c.RequestPayment(context.Background(), PaymentRequest{OrderID: "o"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGatewayTokenCarriesLocaleOnPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &GatewayClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			return testSecret, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "en", claims.Locale)
		w.Write([]byte(`{"info":{"paymentUrl":{"web":"https://pay.example/o"}}}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(GatewayConfig{URL: srv.URL, SigningSecret: testSecret})
	u, err := c.RequestPayment(context.Background(), PaymentRequest{OrderID: "o", Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/o", u)
}
