package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/pkg/enums"
)

type Notification struct {
	ID        string                 `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Timestamp time.Time              `json:"timestamp"`
	OrderID   string                 `json:"orderId,omitempty"`
	Amount    *decimal.Decimal       `json:"amount,omitempty"`
	Status    string                 `json:"status,omitempty"`
}
