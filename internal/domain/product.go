package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductID is a catalog identifier. The product API serves numeric ids; carts and chat
// messages carry them as strings, so both JSON forms decode to the same value.
type ProductID string

// UnmarshalJSON accepts a JSON number or string
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ProductID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ProductID(n.String())
	return nil
}

// String returns the id as text
func (id ProductID) String() string {
	return string(id)
}

// Rating is the optional review summary served by the product API
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product represents a catalog product
type Product struct {
	ID          ProductID `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	Rating      *Rating   `json:"rating,omitempty"`
}

// FindProduct returns the product with the given id from a list
func FindProduct(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if string(p.ID) == id {
			return p, true
		}
	}
	return Product{}, false
}
