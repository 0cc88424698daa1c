package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

// Catalog serves the public product pages. It needs no session and is shared by all callers.
type Catalog struct {
	client clients.CatalogClient
	log    *zap.Logger
	now    func() time.Time
}

func NewCatalog(client clients.CatalogClient, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{client: client, log: log, now: time.Now}
}

// HomeView is the home page: every product and every category
type HomeView struct {
	Products   []models.Product  `json:"products"`
	Categories []models.Category `json:"categories"`
	FetchedAt  time.Time         `json:"timestamp"`
}

// HomeError reports which half of the home page failed to load
type HomeError struct {
	Products   error
	Categories error
}

func (e *HomeError) Error() string {
	var parts []string
	if e.Products != nil {
		parts = append(parts, "products: "+e.Products.Error())
	}
	if e.Categories != nil {
		parts = append(parts, "categories: "+e.Categories.Error())
	}
	return "failed to load home data: " + strings.Join(parts, "; ")
}

func (e *HomeError) Unwrap() []error {
	var errs []error
	if e.Products != nil {
		errs = append(errs, e.Products)
	}
	if e.Categories != nil {
		errs = append(errs, e.Categories)
	}
	return errs
}

// Home fetches products and categories concurrently. If either fails the
// returned view holds whatever did load and the error is a *HomeError.
func (c *Catalog) Home(ctx context.Context) (HomeView, error) {
	type productsResult struct {
		data []models.Product
		err  error
	}
	type categoriesResult struct {
		data []models.Category
		err  error
	}

	productsCh := make(chan productsResult, 1)
	categoriesCh := make(chan categoriesResult, 1)

	go func() {
		data, err := c.client.ListProducts(ctx)
		productsCh <- productsResult{data: data, err: err}
	}()
	go func() {
		data, err := c.client.ListCategories(ctx)
		categoriesCh <- categoriesResult{data: data, err: err}
	}()

	products := <-productsCh
	categories := <-categoriesCh

	view := HomeView{
		Products:   orEmpty(products.data),
		Categories: orEmpty(categories.data),
		FetchedAt:  c.now().UTC(),
	}
	if products.err != nil || categories.err != nil {
		c.log.Warn("Failed to load home data",
			zap.NamedError("products", products.err),
			zap.NamedError("categories", categories.err),
		)
		return view, &HomeError{Products: products.err, Categories: categories.err}
	}
	return view, nil
}

// CategoryProducts lists the products of one category
func (c *Catalog) CategoryProducts(ctx context.Context, categoryID models.ID) ([]models.Product, error) {
	if strings.TrimSpace(categoryID.String()) == "" {
		return nil, apperrors.FieldValidation("cid", "Category is required")
	}
	products, err := c.client.ProductsByCategory(ctx, categoryID)
	if err != nil {
		c.log.Warn("Failed to load category products", zap.String("cid", categoryID.String()), zap.Error(err))
		return nil, err
	}
	return products, nil
}

// Product looks one product up in the catalog listing
func (c *Catalog) Product(ctx context.Context, id models.ID) (*models.Product, error) {
	if strings.TrimSpace(id.String()) == "" {
		return nil, apperrors.FieldValidation("pid", "Product is required")
	}
	products, err := c.client.ListProducts(ctx)
	if err != nil {
		c.log.Warn("Failed to load products", zap.String("pid", id.String()), zap.Error(err))
		return nil, err
	}
	p, ok := models.FindProduct(products, id)
	if !ok {
		return nil, apperrors.New(apperrors.KindServer, http.StatusNotFound, "Product not found", nil)
	}
	return &p, nil
}

// SetClock replaces the clock stamped on home views
func (c *Catalog) SetClock(now func() time.Time) {
	c.now = now
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
