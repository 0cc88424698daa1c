package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/services"
)

// CatalogReader is what the public product pages need
type CatalogReader interface {
	Home(ctx context.Context) (services.HomeView, error)
	CategoryProducts(ctx context.Context, categoryID models.ID) ([]models.Product, error)
	Product(ctx context.Context, id models.ID) (*models.Product, error)
}

type CatalogController struct {
	catalog CatalogReader
	log     *zap.Logger
}

func NewCatalogController(catalog CatalogReader, log *zap.Logger) *CatalogController {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogController{catalog: catalog, log: log}
}

func (cc *CatalogController) Home(c *gin.Context) {
	view, err := cc.catalog.Home(c.Request.Context())
	if err != nil {
		var homeErr *services.HomeError
		if errors.As(err, &homeErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":      "failed to load home data",
				"products":   apperrors.UserMessage(homeErr.Products),
				"categories": apperrors.UserMessage(homeErr.Categories),
			})
			return
		}
		writeError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CatalogController) CategoryProducts(c *gin.Context) {
	products, err := cc.catalog.CategoryProducts(c.Request.Context(), models.ID(c.Param("cid")))
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (cc *CatalogController) ProductByID(c *gin.Context) {
	product, err := cc.catalog.Product(c.Request.Context(), models.ID(c.Param("id")))
	if err != nil {
		writeError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
