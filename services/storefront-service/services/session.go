package services

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/E-Commerce-storefront/pkg/aws"
	"github.com/yashrajoria/E-Commerce-storefront/services/common/auth"
	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/repository"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/store"
)

const sessionExpiredMessage = "Your session has expired. Please log in again."

// Session holds the signed-in user's token and tears everything down when a
// collaborator rejects it.
type Session struct {
	auth    clients.AuthClient
	state   *repository.LocalState
	store   *store.Store
	metrics aws_pkg.MetricsRecorder
	log     *zap.Logger

	mu        sync.RWMutex
	token     string
	info      *models.SessionInfo
	listeners []func(ctx context.Context)
}

func NewSession(authClient clients.AuthClient, state *repository.LocalState, st *store.Store, metrics aws_pkg.MetricsRecorder, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		auth:    authClient,
		state:   state,
		store:   st,
		metrics: metrics,
		log:     log,
	}
}

// Login exchanges credentials for a token and establishes the session
func (s *Session) Login(ctx context.Context, email, password string) (*models.SessionInfo, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.FieldValidation("email", "Email is required")
	}
	if password == "" {
		return nil, apperrors.FieldValidation("password", "Password is required")
	}
	if s.auth == nil {
		return nil, apperrors.IllegalState("login is not available")
	}

	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.log.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return s.Establish(ctx, token)
}

// Establish adopts a token obtained elsewhere
func (s *Session) Establish(ctx context.Context, token string) (*models.SessionInfo, error) {
	claims, err := auth.ParseAndValidateToken(token)
	if err != nil {
		return nil, apperrors.New(apperrors.KindSession, http.StatusUnauthorized, sessionExpiredMessage, err)
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

	if err := s.state.SaveToken(ctx, token); err != nil {
		s.log.Warn("Failed to persist token", zap.Error(err))
	}

	info := infoFromClaims(claims)
	s.mu.Lock()
	s.token = token
	s.info = &info
	s.mu.Unlock()

	s.log.Info("Session established", zap.String("user_id", info.UserID), zap.String("role", string(info.Role)))
	return &info, nil
}

// Restore re-establishes the session from the persisted token, if any
func (s *Session) Restore(ctx context.Context) (*models.SessionInfo, error) {
	token, err := s.state.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, apperrors.Session("Please log in")
	}
	info, err := s.Establish(ctx, token)
	if err != nil {
		_ = s.state.ClearToken(ctx)
		return nil, err
	}
	return info, nil
}

// Token is the TokenSource for collaborator clients
func (s *Session) Token(context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Info returns the signed-in user, or nil
func (s *Session) Info() *models.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// IsAdmin reports whether the session belongs to an administrator
func (s *Session) IsAdmin() bool {
	info := s.Info()
	return info != nil && info.Role == models.RoleAdmin
}

// Logout forgets the token and local collections
func (s *Session) Logout(ctx context.Context) error {
	s.clear()
	s.store.Reset()
	return s.state.ClearToken(ctx)
}

// OnSessionExpired registers fn to run after a rejected token tears the session down
func (s *Session) OnSessionExpired(fn func(ctx context.Context)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Guard passes err through, tearing the session down first when err is a
// session rejection. A nil Session only passes err through.
func (s *Session) Guard(ctx context.Context, err error) error {
	if s == nil || !apperrors.Is(err, apperrors.KindSession) {
		return err
	}
	s.expire(ctx)
	return apperrors.New(apperrors.KindSession, http.StatusUnauthorized, sessionExpiredMessage, err)
}

func (s *Session) expire(ctx context.Context) {
	s.log.Warn("Session rejected by collaborator, logging out")
	s.clear()
	s.store.Reset()
	if err := s.state.ClearToken(ctx); err != nil {
		s.log.Warn("Failed to clear token", zap.Error(err))
	}
	recordCount(ctx, s.metrics, s.log, aws_pkg.MetricSessionsExpired, nil)

	s.mu.RLock()
	listeners := make([]func(ctx context.Context), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx)
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.info = nil
	s.mu.Unlock()
}

func infoFromClaims(c *auth.Claims) models.SessionInfo {
	role := models.RoleAdmin
	if c.IsCustomer() {
		role = models.RoleCustomer
	}
	var expires time.Time
	if !c.ExpiresAt.IsZero() {
		expires = c.ExpiresAt.UTC()
	}
	return models.SessionInfo{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      role,
		ExpiresAt: expires,
	}
}
