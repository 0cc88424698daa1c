package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/middleware"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
)

// SessionRegistry hands out per-user workspaces
type SessionRegistry interface {
	middleware.WorkspaceOpener
	Login(ctx context.Context, email, password string) (string, *services.Workspace, error)
	Drop(userID string)
}

type StorefrontController struct {
	registry SessionRegistry
	log      *zap.Logger
}

func NewStorefrontController(registry SessionRegistry, log *zap.Logger) *StorefrontController {
	if log == nil {
		log = zap.NewNop()
	}
	return &StorefrontController{registry: registry, log: log}
}

func (s *StorefrontController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Auth ---

func (s *StorefrontController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	token, ws, err := s.registry.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := ws.Bootstrap(c.Request.Context()); err != nil {
		s.log.Warn("Bootstrap after login failed", zap.String("user_id", ws.UserID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Logged in successfully",
		"accessToken": token,
		"user":        ws.Session.Info(),
	})
}

func (s *StorefrontController) Logout(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.Session.Logout(c.Request.Context()); err != nil {
		s.log.Warn("Logout cleanup failed", zap.String("user_id", ws.UserID), zap.Error(err))
	}
	s.registry.Drop(ws.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *StorefrontController) Me(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": ws.Session.Info(), "isAdmin": ws.Session.IsAdmin()})
}

// --- Cart ---

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type adjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (s *StorefrontController) GetCart(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.Orchestrator.LoadCart(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

func (s *StorefrontController) AddToCart(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req models.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := ws.Orchestrator.AddItem(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

func (s *StorefrontController) SetQuantity(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := ws.Orchestrator.SetItemQuantity(c.Request.Context(), models.ID(c.Param("id")), req.Quantity); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

func (s *StorefrontController) AdjustQuantity(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta is required"})
		return
	}
	if err := ws.Orchestrator.AdjustItemQuantity(c.Request.Context(), models.ID(c.Param("id")), req.Delta); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

func (s *StorefrontController) RemoveFromCart(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.Orchestrator.RemoveItem(c.Request.Context(), models.ID(c.Param("id"))); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

func (s *StorefrontController) ClearCart(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.Orchestrator.ClearCart(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

// --- Coupons ---

func (s *StorefrontController) ListCoupons(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": ws.Orchestrator.Coupons()})
}

func (s *StorefrontController) ApplyCoupon(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req models.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	ws.Orchestrator.SetCouponInput(req.Code)
	if err := ws.Orchestrator.ApplyCoupon(c.Request.Context(), req.Code); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

func (s *StorefrontController) RemoveCoupon(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.Orchestrator.RemoveCoupon(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCart(c, ws)
}

// --- Wishlist ---

func (s *StorefrontController) GetWishlist(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	items, err := ws.Wishlist.Refresh(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *StorefrontController) AddToWishlist(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req models.WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	items, err := ws.Wishlist.Add(c.Request.Context(), req.ProductID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *StorefrontController) RemoveFromWishlist(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	items, err := ws.Wishlist.Remove(c.Request.Context(), models.ID(c.Param("pid")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// --- helpers ---

func (s *StorefrontController) workspace(c *gin.Context) (*services.Workspace, bool) {
	ws, err := middleware.GetWorkspace(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "relogin": true})
		return nil, false
	}
	return ws, true
}

func (s *StorefrontController) respondCart(c *gin.Context, ws *services.Workspace) {
	snap := ws.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"cart":        snap.Cart,
		"cartCount":   snap.CartCount,
		"totals":      services.ComputeDisplayTotals(snap.Cart),
		"coupons":     ws.Orchestrator.Coupons(),
		"couponInput": ws.Orchestrator.CouponInput(),
	})
}

func (s *StorefrontController) respondError(c *gin.Context, err error) {
	writeError(c, s.log, err)
}

// writeError maps an application error onto an HTTP response. Transport
// failures never leak their cause to the caller.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.UserMessage(err)})
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		body := gin.H{"error": appErr.Message}
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
		c.JSON(statusOr(appErr.Code, http.StatusBadRequest), body)
	case apperrors.KindTransport:
		log.Warn("Collaborator unreachable", zap.String("path", c.FullPath()), zap.Error(appErr.Err))
		c.JSON(http.StatusBadGateway, gin.H{"error": appErr.Message})
	case apperrors.KindServer:
		c.JSON(statusOr(appErr.Code, http.StatusBadGateway), gin.H{"error": appErr.Message})
	case apperrors.KindSession:
		c.JSON(http.StatusUnauthorized, gin.H{"error": appErr.Message, "relogin": true})
	case apperrors.KindState:
		c.JSON(http.StatusConflict, gin.H{"error": appErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": appErr.Message})
	}
}

func statusOr(code, fallback int) int {
	if code < 400 || code > 599 {
		return fallback
	}
	return code
}
