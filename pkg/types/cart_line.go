package types

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one normalized line of the shopper's cart.
type CartLine struct {
	CartLineID        string            `json:"cartLineId"`
	ProductID         string            `json:"productId"`
	Name              string            `json:"name"`
	UnitPrice         decimal.Decimal   `json:"unitPrice"`
	Quantity          int               `json:"quantity"`
	Image             string            `json:"image,omitempty"`
	VendorRef         string            `json:"vendorRef,omitempty"`
	VariantAttributes map[string]string `json:"variantAttributes,omitempty"`
}

// HasVariant reports whether the line carries variant attributes.
func (l CartLine) HasVariant() bool {
	return len(l.VariantAttributes) > 0
}

// VariantKey renders the variant attributes in a stable order, e.g.
// "color=red;size=m". Empty when the line has no variant.
func (l CartLine) VariantKey() string {
	if len(l.VariantAttributes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.VariantAttributes))
	for k := range l.VariantAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+l.VariantAttributes[k])
	}
	return strings.Join(parts, ";")
}

// LineTotal is unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Clone returns a copy that shares no mutable state with l.
func (l CartLine) Clone() CartLine {
	out := l
	if l.VariantAttributes != nil {
		out.VariantAttributes = make(map[string]string, len(l.VariantAttributes))
		for k, v := range l.VariantAttributes {
			out.VariantAttributes[k] = v
		}
	}
	return out
}
