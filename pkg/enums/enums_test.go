package enums

import "testing"

func TestCheckoutStateTransitions(t *testing.T) {
	cases := []struct {
		from CheckoutState
		to   CheckoutState
		ok   bool
	}{
		{CheckoutStateIdle, CheckoutStateStockUpdatesInFlight, true},
		{CheckoutStateStockUpdatesInFlight, CheckoutStateOrderSubmitting, true},
		{CheckoutStateOrderSubmitting, CheckoutStateCommitted, true},
		{CheckoutStateOrderSubmitting, CheckoutStateFailed, true},
		{CheckoutStateFailed, CheckoutStateRolledBack, true},
		{CheckoutStateIdle, CheckoutStateCommitted, false},
		{CheckoutStateCommitted, CheckoutStateFailed, false},
		{CheckoutStateRolledBack, CheckoutStateIdle, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}
	if !CheckoutStateCommitted.IsTerminal() || !CheckoutStateRolledBack.IsTerminal() {
		t.Fatalf("committed and rolled_back must be terminal")
	}
	if CheckoutStateFailed.IsTerminal() {
		t.Fatalf("failed can still be rolled back")
	}
}

func TestParseHelpers(t *testing.T) {
	if p, err := ParseClearPolicy(" ALWAYS "); err != nil || p != ClearPolicyAlways {
		t.Fatalf("unexpected clear policy %q err=%v", p, err)
	}
	if _, err := ParseClearPolicy("sometimes"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
	if d, err := ParseStoreDriver("SQLite"); err != nil || !d.IsSQL() {
		t.Fatalf("unexpected driver %q err=%v", d, err)
	}
	if StoreDriverRedis.IsSQL() {
		t.Fatalf("redis is not a SQL driver")
	}
	if s, err := ParseOrderStatus("Pending"); err != nil || s != OrderStatusPending {
		t.Fatalf("unexpected order status %q err=%v", s, err)
	}
	if _, err := ParseOrderStatus("pending"); err == nil {
		t.Fatalf("order status parsing is case sensitive")
	}
}

func TestStockLevelFor(t *testing.T) {
	cases := map[int]StockLevel{
		-1: StockLevelOut,
		0:  StockLevelOut,
		1:  StockLevelLow,
		9:  StockLevelLow,
		10: StockLevelIn,
		50: StockLevelIn,
	}
	for stock, want := range cases {
		if got := StockLevelFor(stock); got != want {
			t.Fatalf("stock %d: expected %s got %s", stock, want, got)
		}
	}
}
