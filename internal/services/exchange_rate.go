package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/metrics"
)

// ExchangeRateClient берёт курс продажи USD из публичного API ПриватБанка
type ExchangeRateClient struct {
	url    string
	client *http.Client
}

func NewExchangeRateClient(url string, client *http.Client) *ExchangeRateClient {
	return &ExchangeRateClient{url: url, client: client}
}

type exchangeQuote struct {
	Currency string          `json:"ccy"`
	Base     string          `json:"base_ccy"`
	Buy      decimal.Decimal `json:"buy"`
	Sale     decimal.Decimal `json:"sale"`
}

// USDRate возвращает курс продажи USD; ошибки оборачиваются в billing.ErrRateUnavailable
func (c *ExchangeRateClient) USDRate(ctx context.Context) (rate decimal.Decimal, err error) {
	started := time.Now()
	defer func() { metrics.ObserveExternal("exchange_rate", started, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", billing.ErrRateUnavailable, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", billing.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: status %d", billing.ErrRateUnavailable, resp.StatusCode)
	}

	var quotes []exchangeQuote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode: %v", billing.ErrRateUnavailable, err)
	}
	for _, q := range quotes {
		if q.Currency == "USD" && q.Sale.IsPositive() {
			return q.Sale, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: no USD quote in response", billing.ErrRateUnavailable)
}
