package domain

import (
	"fmt"
	"strings"
)

type RouteDecision string

const (
	RouteTree    RouteDecision = "tree"
	RouteGeneral RouteDecision = "general"
)

// ParseRouteDecision maps raw classifier output onto the closed route set.
// Only the text before the first comma counts; it is trimmed and lowercased.
func ParseRouteDecision(raw string) (RouteDecision, error) {
	head, _, _ := strings.Cut(raw, ",")
	tag := strings.ToLower(strings.TrimSpace(head))

	switch RouteDecision(tag) {
	case RouteTree:
		return RouteTree, nil
	case RouteGeneral:
		return RouteGeneral, nil
	default:
		return "", WrapError(ErrRoutingAmbiguous, "parse route", fmt.Errorf("unrecognized route %q", tag))
	}
}

func (d RouteDecision) String() string {
	return string(d)
}
