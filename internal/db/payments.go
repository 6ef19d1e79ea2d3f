package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentLedger struct {
	db *gorm.DB
}

func NewPaymentLedger(conn *gorm.DB) *PaymentLedger {
	return &PaymentLedger{db: conn}
}

// LastPaidMonth возвращает первое число последнего оплаченного месяца.
// Если оплат нет — ErrNoPaymentHistory.
func (l *PaymentLedger) LastPaidMonth(ctx context.Context) (time.Time, error) {
	var p PaymentRecord
	err := l.db.WithContext(ctx).
		Where("is_paid = ?", true).
		Order("year desc, month desc").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, ErrNoPaymentHistory
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC), nil
}

// Toggle переключает отметку оплаты месяца; если записи нет — создаёт оплаченную.
// Возвращает новое значение отметки.
func (l *PaymentLedger) Toggle(ctx context.Context, year, month int) (bool, error) {
	if month < 1 || month > 12 {
		return false, fmt.Errorf("invalid month %d", month)
	}
	var paid bool
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p PaymentRecord
		err := tx.Where("year = ? AND month = ?", year, month).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			paid = true
			return tx.Create(&PaymentRecord{Year: year, Month: month, IsPaid: true}).Error
		}
		if err != nil {
			return err
		}
		paid = !p.IsPaid
		return tx.Model(&p).Update("is_paid", paid).Error
	})
	return paid, err
}

// MarkPaid отмечает месяц оплаченным (без переключения)
func (l *PaymentLedger) MarkPaid(ctx context.Context, year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid month %d", month)
	}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"is_paid": true}),
	}).Create(&PaymentRecord{Year: year, Month: month, IsPaid: true}).Error
}

// IsPaid сообщает, отмечен ли месяц оплаченным
func (l *PaymentLedger) IsPaid(ctx context.Context, year, month int) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&PaymentRecord{}).
		Where("year = ? AND month = ? AND is_paid = ?", year, month, true).
		Count(&count).Error
	return count > 0, err
}

// YearPayments — все записи об оплате за год по возрастанию месяца
func (l *PaymentLedger) YearPayments(ctx context.Context, year int) ([]PaymentRecord, error) {
	var records []PaymentRecord
	err := l.db.WithContext(ctx).Where("year = ?", year).Order("month asc").Find(&records).Error
	return records, err
}

// SeedPaid отмечает месяцы 1..uptoMonth года year оплаченными.
// Уже существующие записи не трогает. Возвращает число созданных записей.
func (l *PaymentLedger) SeedPaid(ctx context.Context, year, uptoMonth int) (int, error) {
	if uptoMonth < 1 || uptoMonth > 12 {
		return 0, fmt.Errorf("invalid month %d", uptoMonth)
	}
	records := make([]PaymentRecord, 0, uptoMonth)
	for m := 1; m <= uptoMonth; m++ {
		records = append(records, PaymentRecord{Year: year, Month: m, IsPaid: true})
	}
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&records)
	return int(res.RowsAffected), res.Error
}
