package domain

import "time"

// PipelineState is threaded through the orchestration graph for one invocation.
// PDFPages stays nil unless the tree branch ran.
type PipelineState struct {
	Input      string          `json:"input"`
	Output     string          `json:"output"`
	Route      RouteDecision   `json:"route,omitempty"`
	RootEntity string          `json:"root_entity,omitempty"`
	Entities   []string        `json:"entities,omitempty"`
	PDFPages   []PageReference `json:"pdf_pages,omitempty"`
}

// TreeAnswer is the result of the hierarchical branch.
type TreeAnswer struct {
	Text       string
	RootEntity string
	Entities   []string
	Context    TreeContext
	PDFPages   []PageReference
}

type PipelineLimits struct {
	ModelCallTimeout   time.Duration
	StoreCallTimeout   time.Duration
	SummaryConcurrency int
	MaxTreeEntities    int
	FlatTopK           int
}

// Answer is the external view of a finished invocation. PDFPages is present
// (possibly empty) only for tree answers.
type Answer struct {
	Output   string           `json:"output"`
	Route    string           `json:"route,omitempty"`
	PDFPages *[]PageReference `json:"pdf_pages,omitempty"`
}

func NewAnswer(state *PipelineState) Answer {
	if state == nil {
		return Answer{}
	}
	answer := Answer{Output: state.Output, Route: state.Route.String()}
	if state.PDFPages != nil {
		pages := state.PDFPages
		answer.PDFPages = &pages
	}
	return answer
}
