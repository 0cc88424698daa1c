package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// CartClient talks to the remote cart service
type CartClient interface {
	GetCart(ctx context.Context) (*models.Cart, error)
	AddItem(ctx context.Context, req models.AddItemRequest) error
	UpdateQuantity(ctx context.Context, itemID models.ID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, itemID models.ID) (*models.Cart, error)
	ClearCart(ctx context.Context) error
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	ApplyCoupon(ctx context.Context, code string) (*models.Cart, error)
	RemoveCoupon(ctx context.Context) (*models.Cart, error)
}

type cartClient struct {
	gw *GatewayClient
}

func NewCartClient(gw *GatewayClient) CartClient {
	return &cartClient{gw: gw}
}

// cartCall returns a nil cart when the response carried no body
func (c *cartClient) cartCall(ctx context.Context, method, path string, query url.Values, body interface{}, fallback string) (*models.Cart, error) {
	var cart models.Cart
	decoded, err := c.gw.Do(ctx, method, path, query, body, &cart, fallback)
	if err != nil || !decoded {
		return nil, err
	}
	return &cart, nil
}

func (c *cartClient) GetCart(ctx context.Context) (*models.Cart, error) {
	cart, err := c.cartCall(ctx, http.MethodGet, "/api/cart/byId", nil, nil, "Failed to load cart")
	if err != nil {
		return nil, err
	}
	if cart == nil {
		empty := models.EmptyCart()
		return &empty, nil
	}
	return cart, nil
}

func (c *cartClient) AddItem(ctx context.Context, req models.AddItemRequest) error {
	_, err := c.gw.Do(ctx, http.MethodPost, "/api/cart/add", nil, req, nil, "Failed to add item to cart")
	return err
}

func (c *cartClient) UpdateQuantity(ctx context.Context, itemID models.ID, quantity int) (*models.Cart, error) {
	q := url.Values{}
	q.Set("quantity", strconv.Itoa(quantity))
	path := "/api/cart/item/" + url.PathEscape(itemID.String()) + "/quantity"
	return c.cartCall(ctx, http.MethodPut, path, q, nil, "Failed to update quantity")
}

func (c *cartClient) RemoveItem(ctx context.Context, itemID models.ID) (*models.Cart, error) {
	path := "/api/cart/item/" + url.PathEscape(itemID.String())
	return c.cartCall(ctx, http.MethodDelete, path, nil, nil, "Failed to remove item")
}

func (c *cartClient) ClearCart(ctx context.Context) error {
	_, err := c.gw.Do(ctx, http.MethodDelete, "/api/cart/clear", nil, nil, nil, "Failed to clear cart")
	return err
}

func (c *cartClient) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons := []models.Coupon{}
	if err := c.gw.getList(ctx, "/api/coupons/all", &coupons, "Failed to load coupons", "coupons", "data"); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (c *cartClient) ApplyCoupon(ctx context.Context, code string) (*models.Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/api/cart/coupon/apply", nil, models.ApplyCouponRequest{Code: code}, "Failed to apply coupon")
}

func (c *cartClient) RemoveCoupon(ctx context.Context) (*models.Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, "/api/cart/coupon/remove", nil, nil, "Failed to remove coupon")
}
