// Package prompts renders every model prompt used by the pipeline.
// Each prompt is a pure function of its typed inputs.
package prompts

import (
	"fmt"
	"strings"
)

func Router(question string) string {
	return fmt.Sprintf(`You are a router for a company ownership assistant.
Classify the question into exactly one route:
- tree: the question asks about the shareholders, owners, parents, subsidiaries or ownership structure of a named entity.
- general: anything else.

Reply with the route first, then a comma, then a short reason. Example: "tree, asks for the shareholders of Acme Corp".

Question:
%s
`, strings.TrimSpace(question))
}

func EntityName(question string) string {
	return fmt.Sprintf(`Extract the name of the primary company or entity referenced in the question.
Return only the entity name exactly as it would appear in a company register.
No quotes, no punctuation around it, no explanation.

Question:
%s
`, strings.TrimSpace(question))
}

func EntitySummary(entityName, context string) string {
	if strings.TrimSpace(context) == "" {
		context = "(no records found)"
	}
	return fmt.Sprintf(`Describe the immediate shareholder relationships of the entity below using only the records provided.
List every shareholder with its type, number of shares and percentage when available.
If the records are empty, say that no shareholder data is available for this entity.

Entity:
%s

Records:
%s
`, entityName, context)
}

func TreeMerge(treeContext string) string {
	return fmt.Sprintf(`You are given per-entity shareholder descriptions of one ownership tree.
The block marked "Root Node" is the entity the user asked about; each "Child Node" block describes an entity that
holds shares in the root or in another node of the tree.
Merge them into one coherent hierarchical description of the full ownership structure, starting at the root.
Do not invent relationships that are not present in the descriptions.

Descriptions:
%s
`, treeContext)
}

func FlatAnswer(question, context string) string {
	return fmt.Sprintf(`Answer user question only from context below.
If context is insufficient, say it directly.

Question:
%s

Context:
%s
`, strings.TrimSpace(question), context)
}
