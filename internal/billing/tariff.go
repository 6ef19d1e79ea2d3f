// Package billing считает счёт за квартиру: аренда, коммунальные услуги, отопление.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"utility-telegram-bot/internal/db"
)

// ElectricityThreshold — граница тарифа на электричество, кВт·ч
const ElectricityThreshold = 100

// IsSummer — июнь..сентябрь включительно
func IsSummer(now time.Time) bool {
	m := now.Month()
	return m >= time.June && m <= time.September
}

// SeasonalFlatPrice возвращает летнюю или обычную цену аренды
func SeasonalFlatPrice(rates db.RateTable, now time.Time) decimal.Decimal {
	if IsSummer(now) {
		return rates.FlatPriceSummer
	}
	return rates.FlatPrice
}

// TieredElectricityCost: первые 100 кВт·ч по rateBelow, остальное по rateAbove
func TieredElectricityCost(units int64, rateBelow, rateAbove decimal.Decimal) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	if units <= ElectricityThreshold {
		return decimal.NewFromInt(units).Mul(rateBelow)
	}
	below := decimal.NewFromInt(ElectricityThreshold).Mul(rateBelow)
	above := decimal.NewFromInt(units - ElectricityThreshold).Mul(rateAbove)
	return below.Add(above)
}

// MonthsElapsedSince — число календарных месяцев между last и now, не меньше 1
func MonthsElapsedSince(last, now time.Time) int {
	months := (now.Year()-last.Year())*12 + int(now.Month()) - int(last.Month())
	if months < 1 {
		return 1
	}
	return months
}
