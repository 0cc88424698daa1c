package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// WishlistItem is one saved product
type WishlistItem struct {
	ItemID    ID              `json:"itemId"`
	ProductID ID              `json:"pid"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
}

func (w *WishlistItem) UnmarshalJSON(b []byte) error {
	type plain WishlistItem
	var aux struct {
		plain
		ID             ID `json:"id"`
		ProductIDCamel ID `json:"productId"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*w = WishlistItem(aux.plain)
	w.ItemID = firstID(w.ItemID, aux.ID)
	w.ProductID = firstID(w.ProductID, aux.ProductIDCamel)
	return nil
}

// WishlistRequest is the body of the wishlist add endpoint
type WishlistRequest struct {
	ProductID ID `json:"pid"`
}
