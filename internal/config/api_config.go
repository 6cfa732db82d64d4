package config

import (
	"strconv"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the base URL of the storefront backend, including the
// API version prefix (e.g. "http://localhost:8000/api/v1").
func (API) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:8000/api/v1")
}

func (API) GetHTTPTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("HTTP_TIMEOUT_SECONDS", "30"))
	if err != nil || seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
