package enums

import "fmt"

// CheckoutState tracks where a checkout transaction currently is.
type CheckoutState string

const (
	CheckoutStateIdle                 CheckoutState = "idle"
	CheckoutStateStockUpdatesInFlight CheckoutState = "stock_updates_in_flight"
	CheckoutStateOrderSubmitting      CheckoutState = "order_submitting"
	CheckoutStateCommitted            CheckoutState = "committed"
	CheckoutStateFailed               CheckoutState = "failed"
	CheckoutStateRolledBack           CheckoutState = "rolled_back"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateStockUpdatesInFlight,
	CheckoutStateOrderSubmitting,
	CheckoutStateCommitted,
	CheckoutStateFailed,
	CheckoutStateRolledBack,
}

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:                 {CheckoutStateStockUpdatesInFlight, CheckoutStateFailed},
	CheckoutStateStockUpdatesInFlight: {CheckoutStateOrderSubmitting, CheckoutStateFailed},
	CheckoutStateOrderSubmitting:      {CheckoutStateCommitted, CheckoutStateFailed},
	CheckoutStateFailed:               {CheckoutStateRolledBack},
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave the state.
func (c CheckoutState) IsTerminal() bool {
	return len(checkoutTransitions[c]) == 0
}

// CanTransitionTo reports whether next is reachable from c in one step.
func (c CheckoutState) CanTransitionTo(next CheckoutState) bool {
	for _, candidate := range checkoutTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
