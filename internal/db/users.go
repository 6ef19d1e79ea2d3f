package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// TelegramProfile — данные пользователя из апдейта Telegram
type TelegramProfile struct {
	ID        int64
	ChatID    int64
	FirstName string
	LastName  string
	Username  string
}

type UserStore struct {
	db             *gorm.DB
	renterUsername string
}

func NewUserStore(conn *gorm.DB, renterUsername string) *UserStore {
	return &UserStore{db: conn, renterUsername: renterUsername}
}

// Ensure создаёт пользователя при первом сообщении и обновляет chat_id/имя при последующих.
// created = true, если пользователь новый.
func (s *UserStore) Ensure(ctx context.Context, p TelegramProfile) (user User, created bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&user, p.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = User{
				ID:        p.ID,
				ChatID:    p.ChatID,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Username:  p.Username,
				IsRenter:  s.renterUsername != "" && p.Username == s.renterUsername,
			}
			created = true
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		if user.ChatID != p.ChatID || user.Username != p.Username {
			user.ChatID = p.ChatID
			user.Username = p.Username
			return tx.Model(&user).Updates(map[string]interface{}{
				"chat_id":  p.ChatID,
				"username": p.Username,
			}).Error
		}
		return nil
	})
	return user, created, err
}

// FindByUsername ищет пользователя по username; nil, если не найден
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Renter возвращает арендатора (пользователь с флагом is_renter) или nil
func (s *UserStore) Renter(ctx context.Context) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("is_renter = ?", true).Order("created_at asc").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
