package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/db"
	"utility-telegram-bot/internal/metrics"
)

var (
	// ErrRateUnavailable — курс USD получить не удалось; без него счёт не считается
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrHeatingUnavailable — сервис отопления не вернул сумму
	ErrHeatingUnavailable = errors.New("heating bill unavailable")
)

type CountersSource interface {
	Delta(ctx context.Context, userID int64) (db.Delta, error)
}

type RateSource interface {
	GetActive(ctx context.Context) (db.RateTable, error)
}

type PaymentSource interface {
	LastPaidMonth(ctx context.Context) (time.Time, error)
}

type ExchangeRateProvider interface {
	USDRate(ctx context.Context) (decimal.Decimal, error)
}

type HeatingProvider interface {
	HeatingBill(ctx context.Context) (decimal.Decimal, error)
}

// OperatorNotifier получает сообщения о некритичных сбоях
type OperatorNotifier interface {
	NotifyAdmin(msg string)
}

type Deps struct {
	Counters CountersSource
	Rates    RateSource
	Payments PaymentSource
	Exchange ExchangeRateProvider
	Heating  HeatingProvider  // nil — отопление не подключено
	Notifier OperatorNotifier // nil — без уведомлений
	Logger   *zap.Logger
}

type Calculator struct {
	counters CountersSource
	rates    RateSource
	payments PaymentSource
	exchange ExchangeRateProvider
	heating  HeatingProvider
	notifier OperatorNotifier
	log      *zap.Logger
}

func NewCalculator(d Deps) *Calculator {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Calculator{
		counters: d.Counters,
		rates:    d.Rates,
		payments: d.Payments,
		exchange: d.Exchange,
		heating:  d.Heating,
		notifier: d.Notifier,
		log:      log,
	}
}

// Calculate собирает итоговый счёт пользователя на момент now
func (c *Calculator) Calculate(ctx context.Context, userID int64, now time.Time) (*Bill, error) {
	bill, err := c.calculate(ctx, userID, now)
	if err != nil {
		reason := "internal"
		if errors.Is(err, ErrRateUnavailable) {
			reason = "exchange_rate"
		}
		metrics.BillFailuresTotal.WithLabelValues(reason).Inc()
		return nil, err
	}
	metrics.BillsCalculatedTotal.Inc()
	return bill, nil
}

func (c *Calculator) calculate(ctx context.Context, userID int64, now time.Time) (*Bill, error) {
	rates, err := c.rates.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	exchangeRate, err := c.exchange.USDRate(ctx)
	if err != nil {
		if !errors.Is(err, ErrRateUnavailable) {
			err = fmt.Errorf("%w: %v", ErrRateUnavailable, err)
		}
		return nil, err
	}

	bill := &Bill{
		UserID:       userID,
		Rates:        rates,
		FlatPrice:    SeasonalFlatPrice(rates, now),
		ExchangeRate: exchangeRate,
	}

	// Аренда копится за каждый неоплаченный месяц
	bill.MonthsSincePayment = 1
	lastPaid, err := c.payments.LastPaidMonth(ctx)
	switch {
	case err == nil:
		bill.MonthsSincePayment = MonthsElapsedSince(lastPaid, now)
	case errors.Is(err, db.ErrNoPaymentHistory):
		c.log.Info("no payment history, charging one month", zap.Int64("user_id", userID))
	default:
		return nil, fmt.Errorf("load last payment: %w", err)
	}
	bill.Flat = bill.FlatPrice.Mul(exchangeRate).Mul(decimal.NewFromInt(int64(bill.MonthsSincePayment)))

	// Потребление считается только между двумя показаниями
	delta, err := c.counters.Delta(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	bill.Consumption = delta
	bill.LastReadingAt = delta.LatestCreatedAt
	bill.Electricity = TieredElectricityCost(delta.Electricity, rates.ElectricityBelow100, rates.ElectricityAbove100)
	bill.Gas = decimal.NewFromInt(delta.Gas).Mul(rates.Gas)
	bill.Water = decimal.NewFromInt(delta.Water).Mul(rates.Water)

	// СДПТ и вывоз мусора — по месяцам с последних показаний
	bill.MonthsSinceReading = 1
	if delta.LatestCreatedAt != nil {
		bill.MonthsSinceReading = MonthsElapsedSince(*delta.LatestCreatedAt, now)
	}
	months := decimal.NewFromInt(int64(bill.MonthsSinceReading))
	bill.SDPT = rates.SDPT.Mul(months)
	bill.Garbage = rates.GarbageRemoval.Mul(months)

	bill.Heating, bill.HeatingAvailable = c.heatingBill(ctx)

	bill.Total = bill.Flat.
		Add(bill.Electricity).
		Add(bill.Gas).
		Add(bill.Water).
		Add(bill.SDPT).
		Add(bill.Garbage).
		Add(bill.Heating)
	return bill, nil
}

func (c *Calculator) heatingBill(ctx context.Context) (decimal.Decimal, bool) {
	if c.heating == nil {
		return decimal.Zero, false
	}
	amount, err := c.heating.HeatingBill(ctx)
	if err != nil {
		metrics.HeatingUnavailableTotal.Inc()
		c.log.Warn("heating bill unavailable", zap.Error(err))
		if c.notifier != nil {
			c.notifier.NotifyAdmin("Не удалось получить счёт за отопление: " + err.Error())
		}
		return decimal.Zero, false
	}
	return amount, true
}
