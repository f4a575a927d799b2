package domain

import "testing"

func TestParseRouteDecision(t *testing.T) {
	cases := []struct {
		raw  string
		want RouteDecision
	}{
		{raw: "tree", want: RouteTree},
		{raw: "  Tree , because it asks for shareholders", want: RouteTree},
		{raw: "GENERAL", want: RouteGeneral},
		{raw: "general,tree", want: RouteGeneral},
	}
	for _, tc := range cases {
		got, err := ParseRouteDecision(tc.raw)
		if err != nil {
			t.Fatalf("ParseRouteDecision(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseRouteDecision(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestParseRouteDecisionRejectsOutOfSetValues(t *testing.T) {
	for _, raw := range []string{"maybe, tree", "", "trees", "tree general"} {
		got, err := ParseRouteDecision(raw)
		if err == nil {
			t.Fatalf("ParseRouteDecision(%q) = %q, expected error", raw, got)
		}
		if !IsKind(err, ErrRoutingAmbiguous) {
			t.Fatalf("expected ErrRoutingAmbiguous for %q, got %v", raw, err)
		}
	}
}
