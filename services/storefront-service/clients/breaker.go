package clients

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Breaker guards calls to one collaborator. Only transport failures count;
// any HTTP answer, including 4xx and 5xx, is a success for the breaker.
type Breaker = gobreaker.CircuitBreaker[*http.Response]

// BreakerSettings tune every breaker a BreakerSet creates
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
}

// BreakerSet shares one breaker per collaborator base URL across all users
type BreakerSet struct {
	settings BreakerSettings
	log      *zap.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

func NewBreakerSet(settings BreakerSettings, log *zap.Logger) *BreakerSet {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BreakerSet{settings: settings, log: log, breakers: make(map[string]*Breaker)}
}

// For returns the breaker for baseURL. A nil set returns nil.
func (s *BreakerSet) For(baseURL string) *Breaker {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[baseURL]; ok {
		return cb
	}
	threshold := s.settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        baseURL,
		MaxRequests: 1,
		Timeout:     s.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn("Collaborator breaker state changed",
				zap.String("collaborator", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	s.breakers[baseURL] = cb
	return cb
}
