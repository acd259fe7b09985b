package cart

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Payload is the raw server cart as returned by the backend. Ids arrive as
// strings, numbers or nested objects, so they are kept loosely typed until
// projection.
type Payload struct {
	ID    any    `json:"id,omitempty"`
	Items []Item `json:"items"`
}

// Item is a single raw server cart item.
type Item struct {
	ID                any              `json:"id,omitempty"`
	UnderscoreID      any              `json:"_id,omitempty"`
	ProductID         any              `json:"productId,omitempty"`
	Product           *ProductRef      `json:"product,omitempty"`
	Quantity          int              `json:"quantity"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	VendorID          any              `json:"vendorId,omitempty"`
	VariantAttributes map[string]any   `json:"variantAttributes,omitempty"`
}

// ProductRef is the product embedded in a cart item. The backend either
// populates the whole product or sends its bare id.
type ProductRef struct {
	ID           any              `json:"id,omitempty"`
	UnderscoreID any              `json:"_id,omitempty"`
	Name         string           `json:"name,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	PriceToUser  *decimal.Decimal `json:"priceToUser,omitempty"`
	Image        string           `json:"image,omitempty"`
	Images       []string         `json:"images,omitempty"`
	Vendor       any              `json:"vendor,omitempty"`
	VendorID     any              `json:"vendorId,omitempty"`
}

type productRefFields ProductRef

// UnmarshalJSON accepts either a populated product object or a scalar id.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		var scalar any
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return err
		}
		*p = ProductRef{ID: scalar}
		return nil
	}
	var fields productRefFields
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	*p = ProductRef(fields)
	return nil
}
