package enums

import (
	"fmt"
	"strings"
)

// ClearPolicy decides when a checkout empties the cart.
type ClearPolicy string

const (
	// ClearPolicyOnCommit clears only once the order has been committed.
	ClearPolicyOnCommit ClearPolicy = "on_commit"
	// ClearPolicyAlways clears after a grace period whatever the remote outcome.
	ClearPolicyAlways ClearPolicy = "always"
)

var validClearPolicies = []ClearPolicy{
	ClearPolicyOnCommit,
	ClearPolicyAlways,
}

// String implements fmt.Stringer.
func (c ClearPolicy) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClearPolicy.
func (c ClearPolicy) IsValid() bool {
	for _, candidate := range validClearPolicies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClearPolicy converts raw input into a ClearPolicy.
func ParseClearPolicy(value string) (ClearPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validClearPolicies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid clear policy %q", value)
}
