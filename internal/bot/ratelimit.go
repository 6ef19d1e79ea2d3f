package bot

import (
	"sync"
	"time"
)

// RateLimiter — in-memory ограничение частоты действий пользователя
type RateLimiter struct {
	mu       sync.Mutex
	lastCall map[int64]map[string]time.Time
	limits   map[string]time.Duration
	fallback time.Duration
	now      func() time.Time
}

// NewRateLimiter: limits — интервал по действию; остальные действия ограничиваются fallback
func NewRateLimiter(limits map[string]time.Duration, fallback time.Duration) *RateLimiter {
	return &RateLimiter{
		lastCall: make(map[int64]map[string]time.Time),
		limits:   limits,
		fallback: fallback,
		now:      time.Now,
	}
}

// DefaultRateLimiter: счёт ходит во внешние сервисы, поэтому не чаще раза в 30 секунд
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(map[string]time.Duration{
		menuBill: 30 * time.Second,
	}, time.Second)
}

// IsLimited возвращает true, если пользователь слишком часто вызывает действие
func (r *RateLimiter) IsLimited(userID int64, action string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if r.lastCall[userID] == nil {
		r.lastCall[userID] = make(map[string]time.Time)
	}
	limit, ok := r.limits[action]
	if !ok {
		limit = r.fallback
	}
	last := r.lastCall[userID][action]
	if !last.IsZero() && now.Sub(last) < limit {
		return true
	}
	r.lastCall[userID][action] = now
	return false
}
