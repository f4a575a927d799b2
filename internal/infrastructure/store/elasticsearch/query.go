package elasticsearch

// Query bodies are built as plain maps so they can be asserted in tests
// without a live cluster.

func entityRecordsQuery(entityName string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"term": map[string]any{
				"entity_name": map[string]any{"value": entityName},
			},
		},
		"_source": []string{"entity_name", "page_number", "shareholders"},
		"sort": []any{
			map[string]any{"page_number": map[string]any{"order": "asc"}},
		},
		"size": size,
	}
}

func childEntitiesQuery(entityName string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"term": map[string]any{
				"entity_name": map[string]any{"value": entityName},
			},
		},
		"_source": []string{"entity_name", "child_entities"},
		"sort": []any{
			map[string]any{"page_number": map[string]any{"order": "asc"}},
		},
		"size": size,
	}
}

func pageReferencesQuery(entityNames []string, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"terms": map[string]any{"entity_name": entityNames},
		},
		"_source": []string{"entity_name", "pdf_url", "page_number"},
		"sort": []any{
			map[string]any{"page_number": map[string]any{"order": "asc"}},
		},
		"size": size,
	}
}

func documentSearchQuery(query string, limit int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"content", "shareholders.name^2", "entity_name^3"},
			},
		},
		"_source": []string{"entity_name", "page_number", "content", "shareholders"},
		"size":    limit,
	}
}
