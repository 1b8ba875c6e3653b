package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type GatewayConfig struct {
	URL           string
	Stage         string
	APIName       string
	APIKey        string
	SigningSecret []byte
	TokenTTL      time.Duration
	Timeout       time.Duration
}

// GatewayClaims identify this service to the gateway authorizer.
type GatewayClaims struct {
	Locale string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

const gatewayIssuer = "smaphregi"

// GatewayClient calls the backend through the API gateway.
type GatewayClient struct {
	*backend
	cfg GatewayConfig
	now func() time.Time
}

func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Minute
	}
	g := &GatewayClient{cfg: cfg, now: time.Now}
	g.backend = &backend{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    gatewayBase(cfg),
		decorate:   g.sign,
	}
	return g
}

func gatewayBase(cfg GatewayConfig) string {
	parts := []string{strings.TrimRight(cfg.URL, "/")}
	if cfg.Stage != "" {
		parts = append(parts, strings.Trim(cfg.Stage, "/"))
	}
	if cfg.APIName != "" {
		parts = append(parts, strings.Trim(cfg.APIName, "/"))
	}
	return strings.Join(parts, "/")
}

func (g *GatewayClient) sign(req *http.Request, locale string) error {
	token, err := g.Token(locale)
	if err != nil {
		return err
	}
	if g.cfg.APIKey != "" {
		req.Header.Set("x-api-key", g.cfg.APIKey)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token mints the HS256 bearer token sent with each gateway call.
func (g *GatewayClient) Token(locale string) (string, error) {
	now := g.now()
	claims := &GatewayClaims{
		Locale: locale,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    gatewayIssuer,
			Audience:  jwt.ClaimStrings{g.cfg.APIName},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.cfg.TokenTTL)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.cfg.SigningSecret)
	if err != nil {
		return "", fmt.Errorf("sign gateway token: %w", err)
	}
	return s, nil
}
