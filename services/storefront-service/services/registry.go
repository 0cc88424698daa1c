package services

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yashrajoria/E-Commerce-storefront/services/common/auth"
	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
)

// WorkspaceBuilder creates the workspace for a user seen for the first time
type WorkspaceBuilder func(userID string) *Workspace

// Registry keeps one workspace per signed-in user
type Registry struct {
	auth  clients.AuthClient
	build WorkspaceBuilder
	log   *zap.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(authClient clients.AuthClient, build WorkspaceBuilder, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		auth:       authClient,
		build:      build,
		log:        log,
		workspaces: make(map[string]*Workspace),
	}
}

// Login authenticates with the auth service and opens the user's workspace
func (r *Registry) Login(ctx context.Context, email, password string) (string, *Workspace, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil, apperrors.FieldValidation("email", "Email is required")
	}
	if password == "" {
		return "", nil, apperrors.FieldValidation("password", "Password is required")
	}
	token, err := r.auth.Login(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	ws, err := r.Open(ctx, token)
	if err != nil {
		return "", nil, err
	}
	return token, ws, nil
}

// Open returns the workspace for the token's user, creating it on first use
// and adopting the token when it differs from the one the session holds.
func (r *Registry) Open(ctx context.Context, token string) (*Workspace, error) {
	claims, err := auth.ParseAndValidateToken(token)
	if err != nil {
		return nil, apperrors.New(apperrors.KindSession, http.StatusUnauthorized, "Please log in again", err)
	}

	r.mu.Lock()
	ws, ok := r.workspaces[claims.UserID]
	if !ok {
		ws = r.build(claims.UserID)
		userID := claims.UserID
		ws.Session.OnSessionExpired(func(context.Context) { r.Drop(userID) })
		r.workspaces[userID] = ws
		r.log.Info("Workspace opened", zap.String("user_id", userID))
	}
	r.mu.Unlock()

	if ws.Session.Token(ctx) != strings.TrimSpace(strings.TrimPrefix(token, "Bearer ")) {
		if _, err := ws.Session.Establish(ctx, token); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// Get returns an open workspace
func (r *Registry) Get(userID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[userID]
	return ws, ok
}

// Drop closes and forgets a user's workspace
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	ws, ok := r.workspaces[userID]
	delete(r.workspaces, userID)
	r.mu.Unlock()
	if ok {
		ws.Close()
		r.log.Info("Workspace dropped", zap.String("user_id", userID))
	}
}

// Len is the number of open workspaces
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Close drops every workspace
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()
	for _, ws := range all {
		ws.Close()
	}
}
