package model

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusActive, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusExpired, false},
		{StatusExpired, StatusCancelled, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusActive.Terminal() {
		t.Error("ACTIVE must not be terminal")
	}
	for _, s := range []Status{StatusCompleted, StatusExpired, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}

func TestItemValid(t *testing.T) {
	cases := []struct {
		item Item
		want bool
	}{
		{Item{ProductID: "p", LocationID: "l"}, true},
		{Item{ProductID: "p", VariantID: "v", LocationID: "l"}, true},
		{Item{ProductID: "p"}, false},
		{Item{LocationID: "l"}, false},
		{Item{}, false},
	}
	for _, tc := range cases {
		if got := tc.item.Valid(); got != tc.want {
			t.Errorf("%+v: expected %v, got %v", tc.item, tc.want, got)
		}
	}
}

func TestItemsWithAndWithoutVariantAreDistinct(t *testing.T) {
	plain := Item{ProductID: "p", LocationID: "l"}
	variant := Item{ProductID: "p", VariantID: "v", LocationID: "l"}
	if plain == variant {
		t.Error("variant and no-variant items must be distinct keys")
	}
}
