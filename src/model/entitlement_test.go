package model

import (
	"testing"
	"time"
)

func TestEntitlementActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		e    Entitlement
		want bool
	}{
		{"active no period end", Entitlement{Status: "active"}, true},
		{"trialing", Entitlement{Status: "trialing"}, true},
		{"active within period", Entitlement{Status: "active", CurrentPeriodEnd: now.Add(24 * time.Hour)}, true},
		{"active past period end", Entitlement{Status: "active", CurrentPeriodEnd: now.Add(-time.Hour)}, false},
		{"canceled", Entitlement{Status: "canceled"}, false},
		{"past due", Entitlement{Status: "past_due", CurrentPeriodEnd: now.Add(24 * time.Hour)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.e.Active(now); got != c.want {
				t.Errorf("Active = %v, want %v", got, c.want)
			}
		})
	}
}
