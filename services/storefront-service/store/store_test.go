package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/E-Commerce-storefront/services/storefront-service/models"
)

func sampleCart() models.Cart {
	return models.Cart{Items: []models.CartItem{
		{ID: "1", ProductID: "p1", Name: "Milk", UnitPrice: decimal.NewFromInt(30), UnitOriginalPrice: decimal.NewFromInt(36), Quantity: 2},
	}}
}

func TestStore_SubscribeReceivesChanges(t *testing.T) {
	s := New()
	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.SetCart(sampleCart())
	s.SetWishlist([]models.WishlistItem{{ItemID: "w1", ProductID: "p9"}})

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Version)
	assert.Equal(t, 2, got[0].CartCount)
	assert.Equal(t, 1, got[1].WishlistCount)

	unsubscribe()
	unsubscribe()
	s.Reset()
	assert.Len(t, got, 2)
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	s := New()
	cart := sampleCart()
	s.SetCart(cart)

	cart.Items[0].Quantity = 99
	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Cart.Items[0].Quantity)

	snap.Cart.Items[0].Quantity = 7
	assert.Equal(t, 2, s.Cart().Items[0].Quantity)
}

func TestStore_Reset(t *testing.T) {
	s := New()
	s.SetCart(sampleCart())
	s.Reset()

	snap := s.Snapshot()
	assert.True(t, snap.Cart.IsEmpty())
	assert.Zero(t, snap.CartCount)
	assert.Empty(t, snap.Wishlist)
}
