package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// User — участник домохозяйства; ID совпадает с Telegram ID
type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	ChatID    int64
	FirstName string
	LastName  string
	Username  string `gorm:"index"`
	IsRenter  bool   `gorm:"default:false"`
	IsMuted   bool   `gorm:"default:false"`
	CreatedAt time.Time
	Readings  []Reading
}

// Reading — один снимок показаний всех трёх счётчиков
type Reading struct {
	ID             uint  `gorm:"primaryKey"`
	UserID         int64 `gorm:"index;not null"`
	Electricity    int64 `gorm:"not null;default:0"`
	Gas            int64 `gorm:"not null;default:0"`
	Water          int64 `gorm:"not null;default:0"`
	GasPhotoFileID string
	CreatedAt      time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false;index"`
}

// RateTable — действующие тарифы (фактически одна строка)
type RateTable struct {
	ID                  uint            `gorm:"primaryKey"`
	Water               decimal.Decimal `gorm:"type:numeric(12,4)"`
	Gas                 decimal.Decimal `gorm:"type:numeric(12,4)"`
	ElectricityBelow100 decimal.Decimal `gorm:"type:numeric(12,4)"`
	ElectricityAbove100 decimal.Decimal `gorm:"type:numeric(12,4)"`
	GarbageRemoval      decimal.Decimal `gorm:"type:numeric(12,4)"`
	SDPT                decimal.Decimal `gorm:"type:numeric(12,4)"`
	FlatPrice           decimal.Decimal `gorm:"type:numeric(12,4)"`
	FlatPriceSummer     decimal.Decimal `gorm:"type:numeric(12,4)"`
	UpdatedAt           time.Time
}

// PaymentRecord — отметка об оплате квартиры за месяц
type PaymentRecord struct {
	ID     uint `gorm:"primaryKey"`
	Year   int  `gorm:"uniqueIndex:idx_payment_year_month;not null"`
	Month  int  `gorm:"uniqueIndex:idx_payment_year_month;not null"`
	IsPaid bool `gorm:"default:false"`
}

// DefaultRates — тарифы, создаваемые при первом обращении
func DefaultRates() RateTable {
	return RateTable{
		Water:               decimal.RequireFromString("23.6"),
		Gas:                 decimal.RequireFromString("7.5"),
		ElectricityBelow100: decimal.RequireFromString("0.9"),
		ElectricityAbove100: decimal.RequireFromString("1.68"),
		GarbageRemoval:      decimal.RequireFromString("17.11"),
		SDPT:                decimal.RequireFromString("148.73"),
		FlatPrice:           decimal.NewFromInt(200),
		FlatPriceSummer:     decimal.NewFromInt(300),
	}
}
