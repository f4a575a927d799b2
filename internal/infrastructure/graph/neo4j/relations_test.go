package neo4j

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestChildQueryUsesDefaults(t *testing.T) {
	query, err := childQuery("", "")
	if err != nil {
		t.Fatalf("childQuery() error = %v", err)
	}
	if !strings.Contains(query, "(p:Entity {name: $name})-[r:HAS_CHILD]->(c:Entity)") {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestChildQueryRejectsInjection(t *testing.T) {
	if _, err := childQuery("Entity) DETACH DELETE (n", "HAS_CHILD"); err == nil {
		t.Fatalf("expected invalid label error")
	}
	if _, err := childQuery("Entity", "OWNS|HAS"); err == nil {
		t.Fatalf("expected invalid relationship error")
	}
}

func TestChildNamesDeduplicatesAndSkipsBlank(t *testing.T) {
	records := []*neo4j.Record{
		{Keys: []string{"name"}, Values: []any{"Beta"}},
		{Keys: []string{"name"}, Values: []any{" "}},
		{Keys: []string{"name"}, Values: []any{"Gamma "}},
		{Keys: []string{"name"}, Values: []any{"Beta"}},
		{Keys: []string{"name"}, Values: []any{nil}},
	}
	got := childNames(records)
	if !reflect.DeepEqual(got, []string{"Beta", "Gamma"}) {
		t.Fatalf("unexpected children: %v", got)
	}
}

func TestClassifyErrorKeepsCancellationOutOfBreaker(t *testing.T) {
	if classifyError(context.Canceled).RecordFailure {
		t.Fatalf("cancellation must not count as a failure")
	}
	class := classifyError(errors.New("syntax error"))
	if class.Retryable || !class.RecordFailure {
		t.Fatalf("plain error must be permanent, got %+v", class)
	}
}
