// Package cart projects raw server cart payloads into normalized cart lines.
package cart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/internal/identity"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

// Project maps a server cart payload to cart lines in server order. Items
// whose product id cannot be resolved are dropped. Project never panics and
// has no side effects; a nil payload yields an empty cart.
func Project(payload *Payload) []types.CartLine {
	if payload == nil {
		return []types.CartLine{}
	}
	lines := make([]types.CartLine, 0, len(payload.Items))
	seen := make(map[string]int, len(payload.Items))
	for _, item := range payload.Items {
		line, ok := projectItem(item)
		if !ok {
			continue
		}
		line.CartLineID = uniqueLineID(line.CartLineID, seen)
		lines = append(lines, line)
	}
	return lines
}

// ProjectItems is Project for a bare item list.
func ProjectItems(items []Item) []types.CartLine {
	return Project(&Payload{Items: items})
}

func projectItem(item Item) (types.CartLine, bool) {
	productID := resolveProductID(item)
	if productID == "" {
		return types.CartLine{}, false
	}

	line := types.CartLine{
		ProductID:         productID,
		Quantity:          item.Quantity,
		UnitPrice:         resolvePrice(item),
		VariantAttributes: NormalizeVariant(item.VariantAttributes),
	}
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	if p := item.Product; p != nil {
		line.Name = strings.TrimSpace(p.Name)
		line.Image = firstImage(p)
		line.VendorRef = firstNonEmpty(identity.Resolve(p.Vendor), identity.Resolve(p.VendorID))
	}
	if line.VendorRef == "" {
		line.VendorRef = identity.Resolve(item.VendorID)
	}

	line.CartLineID = firstNonEmpty(identity.Resolve(item.ID), identity.Resolve(item.UnderscoreID))
	if line.CartLineID == "" {
		line.CartLineID = syntheticLineID(line)
	}
	return line, true
}

func resolveProductID(item Item) string {
	if p := item.Product; p != nil {
		if id := firstNonEmpty(identity.Resolve(p.ID), identity.Resolve(p.UnderscoreID)); id != "" {
			return id
		}
	}
	return identity.Resolve(item.ProductID)
}

// resolvePrice applies the precedence line unitPrice, product priceToUser,
// product price, zero.
func resolvePrice(item Item) decimal.Decimal {
	if item.UnitPrice != nil {
		return *item.UnitPrice
	}
	if p := item.Product; p != nil {
		if p.PriceToUser != nil {
			return *p.PriceToUser
		}
		if p.Price != nil {
			return *p.Price
		}
	}
	return decimal.Zero
}

// NormalizeVariant renders raw variant attributes as strings, dropping empty
// keys and values. It returns nil when nothing survives.
func NormalizeVariant(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" || value == nil {
			continue
		}
		var rendered string
		switch v := value.(type) {
		case string:
			rendered = strings.TrimSpace(v)
		case float64:
			rendered = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			rendered = fmt.Sprint(v)
		}
		if rendered == "" {
			continue
		}
		out[key] = rendered
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func syntheticLineID(line types.CartLine) string {
	if key := line.VariantKey(); key != "" {
		return line.ProductID + ":" + key
	}
	return line.ProductID
}

func uniqueLineID(id string, seen map[string]int) string {
	count := seen[id]
	seen[id] = count + 1
	if count == 0 {
		return id
	}
	return fmt.Sprintf("%s#%d", id, count+1)
}

func firstImage(p *ProductRef) string {
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			return img
		}
	}
	return strings.TrimSpace(p.Image)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
