package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Kind — вид счётчика; совпадает с именем колонки в readings
type Kind string

const (
	KindElectricity Kind = "electricity"
	KindWater       Kind = "water"
	KindGas         Kind = "gas"
)

// Value возвращает показание счётчика указанного вида
func (r *Reading) Value(kind Kind) int64 {
	switch kind {
	case KindElectricity:
		return r.Electricity
	case KindGas:
		return r.Gas
	case KindWater:
		return r.Water
	}
	return 0
}

func (r *Reading) set(kind Kind, value int64) {
	switch kind {
	case KindElectricity:
		r.Electricity = value
	case KindGas:
		r.Gas = value
	case KindWater:
		r.Water = value
	}
}

// Delta — разница между двумя последними показаниями пользователя
type Delta struct {
	Electricity     int64
	Gas             int64
	Water           int64
	LatestCreatedAt *time.Time
}

// ValidateReading разбирает введённое значение и сверяет его с предыдущим
// показанием того же счётчика. Ничего не пишет в БД.
func ValidateReading(kind Kind, raw string, previous *Reading) (int64, error) {
	raw = strings.TrimSpace(raw)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Kind: kind, Value: raw, Reason: "not a whole number"}
	}
	if value < 0 {
		return 0, &ValidationError{Kind: kind, Value: raw, Reason: "negative value"}
	}
	if previous != nil && value < previous.Value(kind) {
		return 0, &ValidationError{
			Kind:   kind,
			Value:  raw,
			Reason: fmt.Sprintf("lower than previous value %d", previous.Value(kind)),
		}
	}
	return value, nil
}

// ComputeDelta считает потребление между previous и latest.
// Если одного из показаний нет, потребление нулевое.
func ComputeDelta(latest, previous *Reading) Delta {
	if latest == nil || previous == nil {
		return Delta{}
	}
	created := latest.CreatedAt
	return Delta{
		Electricity:     latest.Electricity - previous.Electricity,
		Gas:             latest.Gas - previous.Gas,
		Water:           latest.Water - previous.Water,
		LatestCreatedAt: &created,
	}
}

// PeriodStart — начало расчётного периода (1-е число месяца now)
func PeriodStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

type ReadingStore struct {
	db *gorm.DB
}

func NewReadingStore(conn *gorm.DB) *ReadingStore {
	return &ReadingStore{db: conn}
}

// Latest возвращает последнее показание пользователя или nil
func (s *ReadingStore) Latest(ctx context.Context, userID int64) (*Reading, error) {
	return latestReading(s.db.WithContext(ctx), userID)
}

// LatestTwo возвращает последнее и предпоследнее показания (по времени обновления)
func (s *ReadingStore) LatestTwo(ctx context.Context, userID int64) (latest, previous *Reading, err error) {
	var rows []Reading
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc, id desc").
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	if len(rows) > 0 {
		latest = &rows[0]
	}
	if len(rows) > 1 {
		previous = &rows[1]
	}
	return latest, previous, nil
}

// Delta считает потребление по двум последним показаниям
func (s *ReadingStore) Delta(ctx context.Context, userID int64) (Delta, error) {
	latest, previous, err := s.LatestTwo(ctx, userID)
	if err != nil {
		return Delta{}, err
	}
	return ComputeDelta(latest, previous), nil
}

// CurrentPeriod возвращает показание текущего расчётного периода или nil
func (s *ReadingStore) CurrentPeriod(ctx context.Context, userID int64, now time.Time) (*Reading, error) {
	return currentPeriodReading(s.db.WithContext(ctx), userID, now)
}

// RecordReading проверяет и сохраняет новое значение счётчика.
// В пределах текущего месяца обновляется существующая запись; иначе создаётся
// новая, остальные счётчики в ней переносятся из предыдущего показания.
func (s *ReadingStore) RecordReading(ctx context.Context, userID int64, kind Kind, raw string, now time.Time) (*Reading, error) {
	var saved Reading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		latest, err := latestReading(tx, userID)
		if err != nil {
			return err
		}
		value, err := ValidateReading(kind, raw, latest)
		if err != nil {
			return err
		}
		current, err := currentPeriodReading(tx, userID, now)
		if err != nil {
			return err
		}
		if current != nil {
			err = tx.Model(current).Updates(map[string]interface{}{
				string(kind): value,
				"updated_at": now,
			}).Error
			if err != nil {
				return err
			}
			current.set(kind, value)
			current.UpdatedAt = now
			saved = *current
			return nil
		}
		saved = Reading{UserID: userID, CreatedAt: now, UpdatedAt: now}
		if latest != nil {
			saved.Electricity = latest.Electricity
			saved.Gas = latest.Gas
			saved.Water = latest.Water
		}
		saved.set(kind, value)
		return tx.Create(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// AttachGasPhoto сохраняет file_id фото газового счётчика в показание текущего месяца
func (s *ReadingStore) AttachGasPhoto(ctx context.Context, userID int64, fileID string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := currentPeriodReading(tx, userID, now)
		if err != nil {
			return err
		}
		if current == nil {
			return errors.New("no reading for the current period")
		}
		return tx.Model(current).Updates(map[string]interface{}{
			"gas_photo_file_id": fileID,
			"updated_at":        now,
		}).Error
	})
}

func latestReading(tx *gorm.DB, userID int64) (*Reading, error) {
	var r Reading
	err := tx.Where("user_id = ?", userID).Order("updated_at desc, id desc").First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func currentPeriodReading(tx *gorm.DB, userID int64, now time.Time) (*Reading, error) {
	var r Reading
	err := tx.Where("user_id = ? AND created_at >= ?", userID, PeriodStart(now)).
		Order("created_at desc, id desc").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
