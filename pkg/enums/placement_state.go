package enums

// PlacementState is a step of the order-placement flow.
type PlacementState string

const (
	PlacementIdle                 PlacementState = "idle"
	PlacementPreviewBuilt         PlacementState = "preview_built"
	PlacementOrderCreated         PlacementState = "order_created"
	PlacementPaymentIntentCreated PlacementState = "payment_intent_created"
	PlacementPaymentConfirmed     PlacementState = "payment_confirmed"
	PlacementPaymentFailed        PlacementState = "payment_failed"
	PlacementOrderCreationFailed  PlacementState = "order_creation_failed"
)

// String implements fmt.Stringer.
func (p PlacementState) String() string {
	return string(p)
}

// IsTerminal reports whether the flow has finished, successfully or not.
func (p PlacementState) IsTerminal() bool {
	switch p {
	case PlacementPaymentConfirmed, PlacementPaymentFailed, PlacementOrderCreationFailed:
		return true
	default:
		return false
	}
}

var placementTransitions = map[PlacementState][]PlacementState{
	PlacementIdle:                 {PlacementPreviewBuilt},
	PlacementPreviewBuilt:         {PlacementPreviewBuilt, PlacementOrderCreated, PlacementOrderCreationFailed},
	PlacementOrderCreated:         {PlacementPaymentIntentCreated, PlacementPaymentFailed},
	PlacementPaymentIntentCreated: {PlacementPaymentConfirmed, PlacementPaymentFailed},
}

// CanTransition reports whether moving from p to next is allowed.
func (p PlacementState) CanTransition(next PlacementState) bool {
	for _, candidate := range placementTransitions[p] {
		if candidate == next {
			return true
		}
	}
	return false
}
