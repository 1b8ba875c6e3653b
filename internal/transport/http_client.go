package transport

import (
	"net/http"
	"time"
)

// HTTPClient calls the backend functions directly.
type HTTPClient struct {
	*backend
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		backend: &backend{
			httpClient: &http.Client{Timeout: timeout},
			baseURL:    baseURL,
		},
	}
}
