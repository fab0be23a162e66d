// internal/search/query.go
package search

import (
	"strings"

	"stayease/internal/filter"
)

// maxResults bounds a single search; the catalog is far smaller.
const maxResults = 1000

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// BuildQuery translates filter criteria into a bool query sorted by
// catalog position.
func BuildQuery(c filter.Criteria) map[string]interface{} {
	filterClauses := []interface{}{}

	if c.Gender != "" && c.Gender != filter.GenderAll {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": c.Gender},
		})
	}

	if c.Sharing > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"sharing": c.Sharing},
		})
	}

	if c.Search != "" {
		pattern := "*" + wildcardEscaper.Replace(strings.ToLower(c.Search)) + "*"
		filterClauses = append(filterClauses, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"wildcard": map[string]interface{}{"name_lc": map[string]interface{}{"value": pattern}}},
					map[string]interface{}{"wildcard": map[string]interface{}{"location_lc": map[string]interface{}{"value": pattern}}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
		"sort":    []interface{}{map[string]interface{}{"position": map[string]interface{}{"order": "asc"}}},
		"_source": []string{"id"},
		"size":    maxResults,
	}
}
