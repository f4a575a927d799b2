package neo4j

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

const (
	defaultLabel        = "Entity"
	defaultRelationship = "HAS_CHILD"
)

type Config struct {
	URI          string
	Username     string
	Password     string
	Database     string
	Label        string
	Relationship string

	ResilienceExecutor *resilience.Executor
}

// Relations implements ports.EntityRelations over a property graph where
// (:Label {name})-[:Relationship]->(:Label {name}) links a parent to a child.
type Relations struct {
	driver   neo4j.DriverWithContext
	database string
	query    string
	executor *resilience.Executor
}

func New(ctx context.Context, cfg Config) (*Relations, error) {
	query, err := childQuery(cfg.Label, cfg.Relationship)
	if err != nil {
		return nil, err
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Relations{driver: driver, database: cfg.Database, query: query, executor: cfg.ResilienceExecutor}, nil
}

func (r *Relations) ChildEntities(ctx context.Context, entityName string) ([]string, error) {
	records, err := resilience.ExecuteValue(ctx, r.executor, "neo4j.child_entities", func(callCtx context.Context) ([]*neo4j.Record, error) {
		return r.readChildren(callCtx, entityName)
	}, classifyError)
	if err != nil {
		return nil, resilience.MarkTemporary("neo4j child entities", fmt.Errorf("neo4j child entities: %w", err), classifyError)
	}
	return childNames(records), nil
}

func (r *Relations) readChildren(ctx context.Context, entityName string) ([]*neo4j.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, r.query, map[string]any{"name": entityName})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := result.([]*neo4j.Record)
	return records, nil
}

var classifyError = resilience.NewClassifier(func(err error) (resilience.ErrorClassification, bool) {
	if neo4j.IsRetryable(err) {
		return resilience.Transient, true
	}
	return resilience.ErrorClassification{}, false
})

func (r *Relations) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func childQuery(label, relationship string) (string, error) {
	if strings.TrimSpace(label) == "" {
		label = defaultLabel
	}
	if strings.TrimSpace(relationship) == "" {
		relationship = defaultRelationship
	}
	if !isIdentifier(label) || !isIdentifier(relationship) {
		return "", fmt.Errorf("neo4j: invalid label %q or relationship %q", label, relationship)
	}
	return fmt.Sprintf(`
MATCH (p:%s {name: $name})-[r:%s]->(c:%s)
RETURN c.name AS name
ORDER BY coalesce(r.page_number, 0) ASC, c.name ASC
`, label, relationship, label), nil
}

func childNames(records []*neo4j.Record) []string {
	var children []string
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		raw, ok := record.Get("name")
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			continue
		}
		name := domain.CanonicalEntityName(value)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		children = append(children, name)
	}
	return children
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}
