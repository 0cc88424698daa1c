package clients

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// CouponAdminClient manages the coupon catalog; admin tokens only
type CouponAdminClient interface {
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, req models.CouponRequest) error
	UpdateCoupon(ctx context.Context, code string, req models.CouponRequest) error
	DeleteCoupon(ctx context.Context, code string) error
}

type couponAdminClient struct {
	gw *GatewayClient
}

func NewCouponAdminClient(gw *GatewayClient) CouponAdminClient {
	return &couponAdminClient{gw: gw}
}

func (c *couponAdminClient) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons := []models.Coupon{}
	if err := c.gw.getList(ctx, "/api/coupons/all", &coupons, "Failed to load coupons", "coupons", "data"); err != nil {
		return nil, err
	}
	return coupons, nil
}

func (c *couponAdminClient) CreateCoupon(ctx context.Context, req models.CouponRequest) error {
	_, err := c.gw.Do(ctx, http.MethodPost, "/api/coupons/add", nil, req, nil, "Failed to create coupon")
	return err
}

func (c *couponAdminClient) UpdateCoupon(ctx context.Context, code string, req models.CouponRequest) error {
	_, err := c.gw.Do(ctx, http.MethodPut, "/api/coupons/update/"+couponPath(code), nil, req, nil, "Failed to update coupon")
	return err
}

func (c *couponAdminClient) DeleteCoupon(ctx context.Context, code string) error {
	_, err := c.gw.Do(ctx, http.MethodDelete, "/api/coupons/delete/"+couponPath(code), nil, nil, nil, "Failed to delete coupon")
	return err
}

func couponPath(code string) string {
	return url.PathEscape(strings.ToUpper(strings.TrimSpace(code)))
}
