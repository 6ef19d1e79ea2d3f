package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RateStore struct {
	db *gorm.DB
}

func NewRateStore(conn *gorm.DB) *RateStore {
	return &RateStore{db: conn}
}

// GetActive возвращает действующие тарифы; при пустой таблице создаёт тарифы по умолчанию
func (s *RateStore) GetActive(ctx context.Context) (RateTable, error) {
	var rates RateTable
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("id asc").First(&rates).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rates = DefaultRates()
			return tx.Create(&rates).Error
		}
		return err
	})
	return rates, err
}

// rateColumns — поля, которые владелец может менять командой /admin_rates
var rateColumns = map[string]string{
	"water":             "water",
	"gas":               "gas",
	"electricity_below": "electricity_below100",
	"electricity_above": "electricity_above100",
	"garbage":           "garbage_removal",
	"sdpt":              "sdpt",
	"flat":              "flat_price",
	"flat_summer":       "flat_price_summer",
}

// RateFields перечисляет допустимые имена полей для UpdateField
func RateFields() []string {
	return []string{"water", "gas", "electricity_below", "electricity_above", "garbage", "sdpt", "flat", "flat_summer"}
}

// UpdateField меняет один тариф в действующей таблице
func (s *RateStore) UpdateField(ctx context.Context, field string, value decimal.Decimal) (RateTable, error) {
	column, ok := rateColumns[strings.ToLower(field)]
	if !ok {
		return RateTable{}, fmt.Errorf("unknown rate field %q", field)
	}
	if value.IsNegative() {
		return RateTable{}, fmt.Errorf("rate %s must not be negative", field)
	}
	rates, err := s.GetActive(ctx)
	if err != nil {
		return RateTable{}, err
	}
	if err := s.db.WithContext(ctx).Model(&rates).Update(column, value).Error; err != nil {
		return RateTable{}, err
	}
	return s.GetActive(ctx)
}
