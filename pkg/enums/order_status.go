package enums

import "strings"

// OrderStatusKey is the canonical bucket an open-ended backend status string
// normalizes into.
type OrderStatusKey string

const (
	OrderStatusKeyAwaiting   OrderStatusKey = "awaiting"
	OrderStatusKeyDispatched OrderStatusKey = "dispatched"
	OrderStatusKeyDelivered  OrderStatusKey = "delivered"
	OrderStatusKeyOther      OrderStatusKey = "other"
)

// String implements fmt.Stringer.
func (k OrderStatusKey) String() string {
	return string(k)
}

// statusRules are evaluated in order; the first substring hit wins.
var statusRules = []struct {
	needles []string
	key     OrderStatusKey
}{
	{needles: []string{"deliver"}, key: OrderStatusKeyDelivered},
	{needles: []string{"dispatch", "ship", "transit"}, key: OrderStatusKeyDispatched},
	{needles: []string{"await", "pending", "placed", "accept", "confirm", "assign"}, key: OrderStatusKeyAwaiting},
}

// NormalizeOrderStatus maps a raw status onto the canonical key using
// case-insensitive substring containment.
func NormalizeOrderStatus(raw string) OrderStatusKey {
	status := strings.ToLower(strings.TrimSpace(raw))
	if status == "" {
		return OrderStatusKeyOther
	}
	for _, rule := range statusRules {
		for _, needle := range rule.needles {
			if strings.Contains(status, needle) {
				return rule.key
			}
		}
	}
	return OrderStatusKeyOther
}
