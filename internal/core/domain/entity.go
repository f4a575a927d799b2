package domain

import "strings"

type Shareholder struct {
	Name       string  `json:"name"`
	Type       string  `json:"type,omitempty"`
	Shares     float64 `json:"shares,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
}

// EntityRecord is one store record for an entity, usually one per source page.
type EntityRecord struct {
	EntityName    string        `json:"entity_name"`
	PageNumber    int           `json:"page_number,omitempty"`
	Shareholders  []Shareholder `json:"shareholders,omitempty"`
	ChildEntities []string      `json:"child_entities,omitempty"`
	PDFURL        string        `json:"pdf_url,omitempty"`
	WebURL        string        `json:"web_url,omitempty"`
}

type PageReference struct {
	EntityName string `json:"entity_name"`
	PDFURL     string `json:"pdf_url,omitempty"`
	PageNumber int    `json:"page_number"`
}

// Document is a ranked hit of a free-text search.
type Document struct {
	ID         string  `json:"id,omitempty"`
	EntityName string  `json:"entity_name,omitempty"`
	PageNumber int     `json:"page_number,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// CanonicalEntityName is the dedup key for traversal.
func CanonicalEntityName(name string) string {
	return strings.TrimSpace(name)
}
