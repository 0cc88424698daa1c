package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry. Price is what the shopper pays and
// OriginalPrice the struck-through list price.
type Product struct {
	ID            ID              `json:"pid"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Discount      decimal.Decimal `json:"discount"`
	Stock         int             `json:"stock"`
	Rating        float64         `json:"rating,omitempty"`
	Image         string          `json:"image,omitempty"`
	CategoryID    ID              `json:"categoryId,omitempty"`
}

// UnmarshalJSON accepts the product service's field names. The service sends
// price and actualPrice in either order, so the lower one is the selling price.
func (p *Product) UnmarshalJSON(b []byte) error {
	type plain Product
	var aux struct {
		plain
		ProductID     ID               `json:"productId"`
		PName         string           `json:"pname"`
		ActualPrice   *decimal.Decimal `json:"actualPrice"`
		StockQuantity *int             `json:"stockQuantity"`
		ImagePath     string           `json:"imagePath"`
		CID           ID               `json:"cid"`
		Category      *Category        `json:"category"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	p.ID = firstID(p.ID, aux.ProductID)
	p.Name = firstString(p.Name, aux.PName)
	p.Image = firstString(p.Image, aux.ImagePath)
	p.CategoryID = firstID(p.CategoryID, aux.CID)
	if p.CategoryID == "" && aux.Category != nil {
		p.CategoryID = aux.Category.ID
	}
	if aux.StockQuantity != nil {
		p.Stock = *aux.StockQuantity
	}

	other := p.OriginalPrice
	if aux.ActualPrice != nil {
		other = *aux.ActualPrice
	}
	switch {
	case other.IsZero():
		p.OriginalPrice = p.Price
	case p.Price.IsZero():
		p.Price, p.OriginalPrice = other, other
	default:
		p.Price, p.OriginalPrice = decimal.Min(p.Price, other), decimal.Max(p.Price, other)
	}
	return nil
}

// InStock reports whether the product can be added to the cart
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Category groups products on the home page
type Category struct {
	ID    ID     `json:"cid"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

func (c *Category) UnmarshalJSON(b []byte) error {
	type plain Category
	var aux struct {
		plain
		CategoryID ID     `json:"categoryId"`
		CName      string `json:"cname"`
		CPhoto     string `json:"cphoto"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Category(aux.plain)
	c.ID = firstID(c.ID, aux.CategoryID)
	c.Name = firstString(c.Name, aux.CName)
	c.Image = firstString(c.Image, aux.CPhoto)
	return nil
}

// FindProduct returns the product with id
func FindProduct(products []Product, id ID) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
