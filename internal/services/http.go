package services

import (
	"net/http"
	"time"
)

// NewHTTPClient — клиент для внешних сервисов, всегда с таймаутом
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{},
	}
}
