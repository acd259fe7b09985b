package enums

import (
	"fmt"
	"strings"
)

// PaymentPreference selects between paying the whole order upfront or an
// advance with the remainder due on delivery.
type PaymentPreference string

const (
	PaymentPreferenceFull    PaymentPreference = "full"
	PaymentPreferencePartial PaymentPreference = "partial"
)

var validPaymentPreferences = []PaymentPreference{
	PaymentPreferenceFull,
	PaymentPreferencePartial,
}

// String implements fmt.Stringer.
func (p PaymentPreference) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentPreference.
func (p PaymentPreference) IsValid() bool {
	for _, candidate := range validPaymentPreferences {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPreference converts raw input into a PaymentPreference.
func ParsePaymentPreference(value string) (PaymentPreference, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentPreferences {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment preference %q", value)
}
