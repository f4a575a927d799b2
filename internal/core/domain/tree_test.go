package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTreeContextTagsRootFirst(t *testing.T) {
	tc := NewTreeContext(
		[]string{"Acme Corp", "Acme Holdings", "Acme Retail"},
		[]string{"root summary", "holdings summary", "retail summary"},
	)
	if len(tc) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tc))
	}
	if tc[0].Role != RoleRoot || tc[0].Entity != "Acme Corp" {
		t.Fatalf("unexpected root entry: %+v", tc[0])
	}
	for _, node := range tc[1:] {
		if node.Role != RoleChild {
			t.Fatalf("expected child role, got %+v", node)
		}
	}

	want := "Root Node:\nroot summary\nChild Node:\nholdings summary\nChild Node:\nretail summary"
	if got := tc.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestStageErrorKeepsKind(t *testing.T) {
	err := NewStageError("summarize", "Acme Corp", WrapError(ErrStoreQuery, "entity records", errors.New("boom")))
	if !IsKind(err, ErrStoreQuery) {
		t.Fatalf("expected ErrStoreQuery, got %v", err)
	}
	stage, entity, ok := StageOf(err)
	if !ok || stage != "summarize" || entity != "Acme Corp" {
		t.Fatalf("unexpected stage info: %q %q %v", stage, entity, ok)
	}
}

func TestNewAnswerKeepsPageReferencesOnlyForTree(t *testing.T) {
	flat := NewAnswer(&PipelineState{Output: "x", Route: RouteGeneral})
	if flat.PDFPages != nil {
		t.Fatalf("flat answer must not carry pdf pages")
	}
	body, err := json.Marshal(flat)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), "pdf_pages") {
		t.Fatalf("unexpected pdf_pages in %s", body)
	}

	tree := NewAnswer(&PipelineState{Output: "y", Route: RouteTree, PDFPages: []PageReference{}})
	body, err = json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"pdf_pages":[]`) {
		t.Fatalf("expected empty pdf_pages in %s", body)
	}
}
