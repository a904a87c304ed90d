package app

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserLimiter ограничивает частоту запросов одного пользователя к дорогим ручкам.
type UserLimiter struct {
	mu    sync.Mutex
	byID  map[int64]*entry
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewUserLimiter: perMinute запросов в минуту, burst подряд.
func NewUserLimiter(perMinute, burst int) *UserLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 1
	}
	return &UserLimiter{
		byID:  make(map[int64]*entry),
		limit: rate.Limit(float64(perMinute) / 60),
		burst: burst,
		idle:  10 * time.Minute,
		now:   time.Now,
	}
}

// Allow не блокирует: false, если пользователь исчерпал лимит.
func (l *UserLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.byID[userID]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.byID[userID] = e
	}
	e.seen = now
	l.evict(now)
	return e.lim.AllowN(now, 1)
}

// evict убирает давно молчащих пользователей, чтобы карта не росла.
func (l *UserLimiter) evict(now time.Time) {
	for id, e := range l.byID {
		if now.Sub(e.seen) > l.idle {
			delete(l.byID, id)
		}
	}
}

func (l *UserLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}
