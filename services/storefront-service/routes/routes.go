package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/controllers"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/middleware"
)

func RegisterRoutes(r *gin.Engine, ctrl *controllers.StorefrontController, catalog *controllers.CatalogController, opener middleware.WorkspaceOpener) {
	r.GET("/health", ctrl.Health)

	// Public routes - no auth required
	public := r.Group("/bff")
	{
		public.POST("/auth/login", ctrl.Login)

		// Catalog pages
		public.GET("/home", catalog.Home)
		public.GET("/categories/:cid/products", catalog.CategoryProducts)
		public.GET("/products/:id", catalog.ProductByID)
	}

	// Protected routes - require a bearer token
	protected := r.Group("/bff")
	protected.Use(middleware.AuthMiddleware(opener))
	{
		protected.POST("/auth/logout", ctrl.Logout)
		protected.GET("/auth/me", ctrl.Me)

		// Cart page
		protected.GET("/cart", ctrl.GetCart)
		protected.POST("/cart/items", ctrl.AddToCart)
		protected.PUT("/cart/items/:id/quantity", ctrl.SetQuantity)
		protected.POST("/cart/items/:id/adjust", ctrl.AdjustQuantity)
		protected.DELETE("/cart/items/:id", ctrl.RemoveFromCart)
		protected.DELETE("/cart", ctrl.ClearCart)

		// Coupons
		protected.GET("/coupons", ctrl.ListCoupons)
		protected.POST("/cart/coupon", ctrl.ApplyCoupon)
		protected.DELETE("/cart/coupon", ctrl.RemoveCoupon)

		// Addresses
		protected.GET("/addresses", ctrl.ListAddresses)
		protected.POST("/addresses", ctrl.SaveAddress)
		protected.PUT("/addresses/:id", ctrl.SaveAddress)
		protected.DELETE("/addresses/:id", ctrl.DeleteAddress)
		protected.POST("/addresses/:id/select", ctrl.SelectAddress)

		// Checkout
		protected.GET("/checkout", ctrl.CheckoutState)
		protected.POST("/checkout/begin", ctrl.BeginCheckout)
		protected.POST("/checkout/address", ctrl.CheckoutAddress)
		protected.POST("/checkout/payment-method", ctrl.CheckoutPaymentMethod)
		protected.POST("/checkout/submit", ctrl.SubmitCheckout)
		protected.POST("/checkout/cancel", ctrl.CancelCheckout)

		// Orders page
		protected.GET("/orders", ctrl.Orders)

		// Wishlist
		protected.GET("/wishlist", ctrl.GetWishlist)
		protected.POST("/wishlist", ctrl.AddToWishlist)
		protected.DELETE("/wishlist/:pid", ctrl.RemoveFromWishlist)
	}

	admin := protected.Group("/admin")
	{
		admin.GET("/coupons", ctrl.AdminListCoupons)
		admin.POST("/coupons", ctrl.AdminCreateCoupon)
		admin.PUT("/coupons/:code", ctrl.AdminUpdateCoupon)
		admin.DELETE("/coupons/:code", ctrl.AdminDeleteCoupon)
	}
}
