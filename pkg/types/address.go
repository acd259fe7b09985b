package types

import "strings"

// Address is a saved delivery address.
type Address struct {
	AddressID string `json:"addressId"`
	Label     string `json:"label" validate:"omitempty,max=40"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Pincode   string `json:"pincode" validate:"required,numeric,len=6"`
	Phone     string `json:"phone" validate:"omitempty,numeric,len=10"`
	IsDefault bool   `json:"isDefault"`
}

// Deliverable reports whether the address has everything checkout needs.
func (a Address) Deliverable() bool {
	return strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" &&
		strings.TrimSpace(a.Pincode) != ""
}
