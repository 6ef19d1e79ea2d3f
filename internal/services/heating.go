package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/metrics"
)

type HeatingConfig struct {
	Login      string
	Password   string
	LoginURL   string
	BillURL    string
	ProviderID string
}

// HeatingClient логинится в кабинет теплоснабжения и забирает сумму к оплате
type HeatingClient struct {
	cfg    HeatingConfig
	client *http.Client
}

func NewHeatingClient(cfg HeatingConfig, client *http.Client) *HeatingClient {
	return &HeatingClient{cfg: cfg, client: client}
}

type heatingLoginResponse struct {
	Token   string `json:"token"`
	Account []struct {
		Code string `json:"Code"`
	} `json:"account"`
}

type heatingBillResponse struct {
	Dataset []struct {
		SumToPay decimal.Decimal `json:"sum_topay"`
	} `json:"dataset"`
}

// HeatingBill возвращает сумму к оплате за отопление.
// Любая ошибка оборачивается в billing.ErrHeatingUnavailable.
func (c *HeatingClient) HeatingBill(ctx context.Context) (amount decimal.Decimal, err error) {
	started := time.Now()
	defer func() { metrics.ObserveExternal("heating", started, err) }()

	token, account, err := c.login(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: login: %v", billing.ErrHeatingUnavailable, err)
	}

	body, err := json.Marshal(map[string]string{"account": account, "provider_id": c.cfg.ProviderID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", billing.ErrHeatingUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BillURL, bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", billing.ErrHeatingUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	var bill heatingBillResponse
	if err := c.doJSON(req, &bill); err != nil {
		return decimal.Zero, fmt.Errorf("%w: bill: %v", billing.ErrHeatingUnavailable, err)
	}
	if len(bill.Dataset) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty dataset", billing.ErrHeatingUnavailable)
	}
	return bill.Dataset[0].SumToPay, nil
}

func (c *HeatingClient) login(ctx context.Context) (token, account string, err error) {
	form := url.Values{}
	form.Set("email", c.cfg.Login)
	form.Set("password", c.cfg.Password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var login heatingLoginResponse
	if err := c.doJSON(req, &login); err != nil {
		return "", "", err
	}
	if login.Token == "" {
		return "", "", fmt.Errorf("no token in response")
	}
	if len(login.Account) == 0 || login.Account[0].Code == "" {
		return "", "", fmt.Errorf("no account in response")
	}
	return login.Token, login.Account[0].Code, nil
}

func (c *HeatingClient) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
