package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

const defaultMaxHits = 1000

type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	Index     string
	Transport http.RoundTripper

	// MaxHits caps records fetched per entity and per page-reference query.
	MaxHits int

	ResilienceExecutor *resilience.Executor
}

// Store implements the entity record, relation and document search ports on one index.
type Store struct {
	client   *elasticsearch.Client
	index    string
	maxHits  int
	executor *resilience.Executor
}

func New(cfg Config) (*Store, error) {
	index := strings.TrimSpace(cfg.Index)
	if index == "" {
		return nil, fmt.Errorf("elasticsearch: index is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: cfg.Transport,

		// Retries are owned by the resilience executor.
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	maxHits := cfg.MaxHits
	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}
	return &Store{client: client, index: index, maxHits: maxHits, executor: cfg.ResilienceExecutor}, nil
}

type shareholderSource struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Shares     float64 `json:"shares"`
	Percentage float64 `json:"percentage"`
}

type recordSource struct {
	EntityName    string              `json:"entity_name"`
	PageNumber    int                 `json:"page_number"`
	Shareholders  []shareholderSource `json:"shareholders"`
	ChildEntities []string            `json:"child_entities"`
	PDFURL        string              `json:"pdf_url"`
	WebURL        string              `json:"web_url"`
	Content       string              `json:"content"`
}

type searchHit struct {
	ID     string       `json:"_id"`
	Score  float64      `json:"_score"`
	Source recordSource `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

func (s *Store) EntityRecords(ctx context.Context, entityName string) ([]domain.EntityRecord, error) {
	hits, err := s.search(ctx, "es.entity_records", entityRecordsQuery(entityName, s.maxHits))
	if err != nil {
		return nil, err
	}
	records := make([]domain.EntityRecord, 0, len(hits))
	for _, hit := range hits {
		records = append(records, toRecord(hit.Source))
	}
	return records, nil
}

func (s *Store) ChildEntities(ctx context.Context, entityName string) ([]string, error) {
	hits, err := s.search(ctx, "es.child_entities", childEntitiesQuery(entityName, s.maxHits))
	if err != nil {
		return nil, err
	}
	var children []string
	seen := make(map[string]struct{})
	for _, hit := range hits {
		for _, child := range hit.Source.ChildEntities {
			name := domain.CanonicalEntityName(child)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			children = append(children, name)
		}
	}
	return children, nil
}

func (s *Store) PageReferences(ctx context.Context, entityNames []string) ([]domain.PageReference, error) {
	if len(entityNames) == 0 {
		return []domain.PageReference{}, nil
	}
	hits, err := s.search(ctx, "es.page_references", pageReferencesQuery(entityNames, s.maxHits))
	if err != nil {
		return nil, err
	}
	pages := make([]domain.PageReference, 0, len(hits))
	seen := make(map[domain.PageReference]struct{}, len(hits))
	for _, hit := range hits {
		ref := domain.PageReference{
			EntityName: hit.Source.EntityName,
			PDFURL:     hit.Source.PDFURL,
			PageNumber: hit.Source.PageNumber,
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		pages = append(pages, ref)
	}
	return pages, nil
}

func (s *Store) SearchDocuments(ctx context.Context, query string, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		return nil, nil
	}
	hits, err := s.search(ctx, "es.search_documents", documentSearchQuery(query, limit))
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(hits))
	for _, hit := range hits {
		text := hit.Source.Content
		if strings.TrimSpace(text) == "" {
			text = shareholderText(hit.Source.Shareholders)
		}
		docs = append(docs, domain.Document{
			ID:         hit.ID,
			EntityName: hit.Source.EntityName,
			PageNumber: hit.Source.PageNumber,
			Text:       text,
			Score:      hit.Score,
		})
	}
	return docs, nil
}

// Ping checks cluster reachability for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return wrapTemporaryIfNeeded("es.ping", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return wrapTemporaryIfNeeded("es.ping", statusError("ping", res))
	}
	return nil
}

func (s *Store) search(ctx context.Context, operation string, body map[string]any) ([]searchHit, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s query: %w", operation, err)
	}

	hits, err := resilience.ExecuteValue(ctx, s.executor, operation, func(callCtx context.Context) ([]searchHit, error) {
		res, err := s.client.Search(
			s.client.Search.WithContext(callCtx),
			s.client.Search.WithIndex(s.index),
			s.client.Search.WithBody(bytes.NewReader(payload)),
		)
		if err != nil {
			return nil, fmt.Errorf("%s request: %w", operation, err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return nil, statusError(operation, res)
		}

		var decoded searchResponse
		if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", operation, err)
		}
		return decoded.Hits.Hits, nil
	}, classifyError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded(operation, err)
	}
	return hits, nil
}

func statusError(operation string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
	return &StatusError{
		Operation:  operation,
		StatusCode: res.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

func toRecord(src recordSource) domain.EntityRecord {
	holders := make([]domain.Shareholder, 0, len(src.Shareholders))
	for _, h := range src.Shareholders {
		holders = append(holders, domain.Shareholder{
			Name:       h.Name,
			Type:       h.Type,
			Shares:     h.Shares,
			Percentage: h.Percentage,
		})
	}
	return domain.EntityRecord{
		EntityName:    src.EntityName,
		PageNumber:    src.PageNumber,
		Shareholders:  holders,
		ChildEntities: src.ChildEntities,
		PDFURL:        src.PDFURL,
		WebURL:        src.WebURL,
	}
}

func shareholderText(holders []shareholderSource) string {
	var b strings.Builder
	for _, h := range holders {
		fmt.Fprintf(&b, "%s (%s) %.2f%%\n", h.Name, h.Type, h.Percentage)
	}
	return strings.TrimSpace(b.String())
}
