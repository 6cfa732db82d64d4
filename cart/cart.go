// Package cart presents a single logical shopping cart regardless of
// authentication state. Anonymous mutations apply to a locally persisted cart;
// on login the local cart is merged into the server cart exactly once per
// user, after which the server is the source of truth and every mutation is
// applied locally first (never rolled back) and pushed remotely best-effort.
package cart

import "github.com/shdpixel/storefront-client/catalog"

// Item is a cart line: product id, quantity, and the denormalized display
// fields needed to render the cart offline.
type Item struct {
	ProductID int      `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Name      string   `json:"name,omitempty"`
	Price     float64  `json:"price,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// serverCart mirrors the backend cart envelope.
type serverCart struct {
	ID        int              `json:"id"`
	UserID    int              `json:"user_id"`
	CartItems []serverCartItem `json:"cart_items"`
}

type serverCartItem struct {
	ID        int              `json:"id"`
	ProductID int              `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *catalog.Product `json:"product"`
}

// toItems flattens the server cart, dropping lines with no product payload or
// a non-positive quantity.
func (sc serverCart) toItems() []Item {
	items := make([]Item, 0, len(sc.CartItems))
	for _, ci := range sc.CartItems {
		if ci.Product == nil || ci.Quantity < 1 {
			continue
		}
		items = append(items, Item{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Name:      ci.Product.Name,
			Price:     ci.Product.Price,
			Thumbnail: ci.Product.Thumbnail,
			Images:    ci.Product.Images,
		})
	}
	return items
}

// addItemRequest is the additive merge/add payload.
type addItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}
