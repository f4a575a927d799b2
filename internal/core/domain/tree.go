package domain

import "strings"

type NodeRole string

const (
	RoleRoot  NodeRole = "Root Node"
	RoleChild NodeRole = "Child Node"
)

type NodeSummary struct {
	Entity  string   `json:"entity"`
	Role    NodeRole `json:"role"`
	Summary string   `json:"summary"`
}

// TreeContext holds per-entity summaries in discovery order, root first.
type TreeContext []NodeSummary

// NewTreeContext tags summaries by position: index 0 is the root.
func NewTreeContext(entities, summaries []string) TreeContext {
	out := make(TreeContext, 0, len(entities))
	for i, entity := range entities {
		role := RoleChild
		if i == 0 {
			role = RoleRoot
		}
		summary := ""
		if i < len(summaries) {
			summary = summaries[i]
		}
		out = append(out, NodeSummary{Entity: entity, Role: role, Summary: summary})
	}
	return out
}

func (tc TreeContext) String() string {
	var b strings.Builder
	for _, node := range tc {
		if node.Role == RoleRoot {
			b.WriteString("Root Node:\n")
		} else {
			b.WriteString("\nChild Node:\n")
		}
		b.WriteString(node.Summary)
	}
	return b.String()
}
