package services

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/E-Commerce-storefront/services/common/errors"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/clients"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/store"
)

// Wishlist mirrors the remote wishlist into the store
type Wishlist struct {
	client  clients.WishlistClient
	store   *store.Store
	session *Session
	log     *zap.Logger
}

func NewWishlist(client clients.WishlistClient, st *store.Store, session *Session, log *zap.Logger) *Wishlist {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wishlist{client: client, store: st, session: session, log: log}
}

func (w *Wishlist) Refresh(ctx context.Context) ([]models.WishlistItem, error) {
	items, err := w.client.ListWishlist(ctx)
	if err != nil {
		w.log.Warn("Failed to load wishlist", zap.Error(err))
		return nil, w.session.Guard(ctx, err)
	}
	w.store.SetWishlist(items)
	return items, nil
}

func (w *Wishlist) Add(ctx context.Context, productID models.ID) ([]models.WishlistItem, error) {
	if productID == "" {
		return nil, apperrors.FieldValidation("productId", "Product is required")
	}
	if err := w.client.AddToWishlist(ctx, productID); err != nil {
		w.log.Warn("Failed to add to wishlist", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, w.session.Guard(ctx, err)
	}
	return w.Refresh(ctx)
}

func (w *Wishlist) Remove(ctx context.Context, productID models.ID) ([]models.WishlistItem, error) {
	if productID == "" {
		return nil, apperrors.FieldValidation("productId", "Product is required")
	}
	if err := w.client.RemoveFromWishlist(ctx, productID); err != nil {
		w.log.Warn("Failed to remove from wishlist", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, w.session.Guard(ctx, err)
	}
	return w.Refresh(ctx)
}

// Contains reports whether productID is in the last fetched wishlist
func (w *Wishlist) Contains(productID models.ID) bool {
	for _, item := range w.store.Snapshot().Wishlist {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
