package clients

import (
	"context"
	"net/url"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// CatalogClient reads the public product catalog
type CatalogClient interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ProductsByCategory(ctx context.Context, categoryID models.ID) ([]models.Product, error)
}

type catalogClient struct {
	gw *GatewayClient
}

func NewCatalogClient(gw *GatewayClient) CatalogClient {
	return &catalogClient{gw: gw}
}

func (c *catalogClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := c.gw.getList(ctx, "/api/admin/products/all", &products, "Failed to load products", "products", "data"); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *catalogClient) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := c.gw.getList(ctx, "/api/admin/categories/all", &categories, "Failed to load categories", "categories", "data"); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *catalogClient) ProductsByCategory(ctx context.Context, categoryID models.ID) ([]models.Product, error) {
	products := []models.Product{}
	path := "/api/admin/products/category/" + url.PathEscape(categoryID.String())
	if err := c.gw.getList(ctx, path, &products, "Failed to load products", "products", "data"); err != nil {
		return nil, err
	}
	return products, nil
}
