package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// WishlistClient talks to the wishlist endpoints of the cart service
type WishlistClient interface {
	ListWishlist(ctx context.Context) ([]models.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID models.ID) error
	RemoveFromWishlist(ctx context.Context, productID models.ID) error
}

type wishlistClient struct {
	gw *GatewayClient
}

func NewWishlistClient(gw *GatewayClient) WishlistClient {
	return &wishlistClient{gw: gw}
}

func (c *wishlistClient) ListWishlist(ctx context.Context) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	if err := c.gw.getList(ctx, "/api/wishlist/all", &items, "Failed to load wishlist", "items", "wishlist", "data"); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *wishlistClient) AddToWishlist(ctx context.Context, productID models.ID) error {
	_, err := c.gw.Do(ctx, http.MethodPost, "/api/wishlist/add", nil, models.WishlistRequest{ProductID: productID}, nil, "Failed to add to wishlist")
	return err
}

func (c *wishlistClient) RemoveFromWishlist(ctx context.Context, productID models.ID) error {
	_, err := c.gw.Do(ctx, http.MethodDelete, "/api/wishlist/remove/"+url.PathEscape(productID.String()), nil, nil, nil, "Failed to remove from wishlist")
	return err
}
