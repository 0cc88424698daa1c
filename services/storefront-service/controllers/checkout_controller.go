package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
)

// --- Addresses ---

type selectAddressRequest struct {
	AddressID models.ID `json:"addressId"`
}

type paymentMethodRequest struct {
	Method models.PaymentMethod `json:"method" binding:"required"`
	Card   *models.CardDetails  `json:"card,omitempty"`
}

type submitRequest struct {
	DeliveryInstructions []string `json:"deliveryInstructions"`
}

func (s *StorefrontController) ListAddresses(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if _, err := ws.Addresses.Refresh(c.Request.Context()); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondAddresses(c, ws, http.StatusOK)
}

func (s *StorefrontController) SaveAddress(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	status := http.StatusCreated
	addr.ID = models.ID(c.Param("id"))
	if addr.ID != "" {
		status = http.StatusOK
	}
	if _, err := ws.Addresses.Save(c.Request.Context(), addr); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondAddresses(c, ws, status)
}

func (s *StorefrontController) DeleteAddress(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.Addresses.Delete(c.Request.Context(), models.ID(c.Param("id"))); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondAddresses(c, ws, http.StatusOK)
}

func (s *StorefrontController) SelectAddress(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if _, err := ws.Addresses.Select(c.Request.Context(), models.ID(c.Param("id"))); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondAddresses(c, ws, http.StatusOK)
}

func (s *StorefrontController) respondAddresses(c *gin.Context, ws *services.Workspace, status int) {
	c.JSON(status, gin.H{
		"addresses": ws.Addresses.List(),
		"selected":  ws.Addresses.Selected(c.Request.Context()),
	})
}

// --- Checkout ---

func (s *StorefrontController) CheckoutState(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	s.respondCheckout(c, ws, ws.Checkout.View())
}

func (s *StorefrontController) BeginCheckout(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	view, err := ws.Checkout.Begin(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCheckout(c, ws, view)
}

func (s *StorefrontController) CheckoutAddress(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req selectAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AddressID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "addressId is required", "field": "addressId"})
		return
	}
	view, err := ws.Checkout.ProvideAddress(c.Request.Context(), req.AddressID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCheckout(c, ws, view)
}

func (s *StorefrontController) CheckoutPaymentMethod(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "method is required", "field": "paymentMethod"})
		return
	}
	view, err := ws.Checkout.SelectPaymentMethod(req.Method, req.Card)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCheckout(c, ws, view)
}

func (s *StorefrontController) SubmitCheckout(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req submitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}
	if _, err := ws.Checkout.Submit(c.Request.Context(), req.DeliveryInstructions); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCheckout(c, ws, ws.Checkout.View())
}

func (s *StorefrontController) CancelCheckout(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	view, err := ws.Checkout.Cancel()
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondCheckout(c, ws, view)
}

func (s *StorefrontController) respondCheckout(c *gin.Context, ws *services.Workspace, view services.CheckoutView) {
	c.JSON(http.StatusOK, gin.H{
		"checkout":                   view,
		"totals":                     ws.Orchestrator.Totals(),
		"selectedAddress":            ws.Addresses.Selected(c.Request.Context()),
		"deliveryInstructionOptions": models.DeliveryInstructionOptions,
	})
}

// --- Orders ---

func (s *StorefrontController) Orders(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	orders, err := ws.Checkout.OrderHistory(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// --- Admin coupons ---

func (s *StorefrontController) AdminListCoupons(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	coupons, err := ws.CouponAdmin.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func (s *StorefrontController) AdminCreateCoupon(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req models.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := ws.CouponAdmin.Create(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Coupon created"})
}

func (s *StorefrontController) AdminUpdateCoupon(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	var req models.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Code == "" {
		req.Code = c.Param("code")
	}
	if err := ws.CouponAdmin.Update(c.Request.Context(), c.Param("code"), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon updated"})
}

func (s *StorefrontController) AdminDeleteCoupon(c *gin.Context) {
	ws, ok := s.workspace(c)
	if !ok {
		return
	}
	if err := ws.CouponAdmin.Delete(c.Request.Context(), c.Param("code")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}
