package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utility-telegram-bot/internal/billing"
)

func newHeatingServer(t *testing.T, billBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("email") != "user@example.com" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"token":"tok-1","account":[{"Code":"ACC-7"}]}`))
	})
	mux.HandleFunc("/bill", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "tok-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ACC-7", req["account"])
		assert.Equal(t, "42", req["provider_id"])
		w.Write([]byte(billBody))
	})
	return httptest.NewServer(mux)
}

func heatingConfig(url, password string) HeatingConfig {
	return HeatingConfig{
		Login:      "user@example.com",
		Password:   password,
		LoginURL:   url + "/login",
		BillURL:    url + "/bill",
		ProviderID: "42",
	}
}

func TestHeatingClient_HeatingBill(t *testing.T) {
	srv := newHeatingServer(t, `{"dataset":[{"sum_topay":812.4}]}`)
	defer srv.Close()

	client := NewHeatingClient(heatingConfig(srv.URL, "secret"), NewHTTPClient(time.Second))
	amount, err := client.HeatingBill(context.Background())
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("812.4")), "got %s", amount)
}

func TestHeatingClient_QuotedAmount(t *testing.T) {
	srv := newHeatingServer(t, `{"dataset":[{"sum_topay":"100.50"}]}`)
	defer srv.Close()

	client := NewHeatingClient(heatingConfig(srv.URL, "secret"), NewHTTPClient(time.Second))
	amount, err := client.HeatingBill(context.Background())
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("100.5")))
}

func TestHeatingClient_Failures(t *testing.T) {
	tests := []struct {
		desc     string
		password string
		body     string
	}{
		{"bad credentials", "wrong", `{"dataset":[{"sum_topay":1}]}`},
		{"empty dataset", "secret", `{"dataset":[]}`},
		{"malformed bill", "secret", `not json`},
	}

	for _, tt := range tests {
		srv := newHeatingServer(t, tt.body)
		client := NewHeatingClient(heatingConfig(srv.URL, tt.password), NewHTTPClient(time.Second))
		_, err := client.HeatingBill(context.Background())
		srv.Close()
		assert.ErrorIs(t, err, billing.ErrHeatingUnavailable, tt.desc)
	}
}
