// internal/workers/matching/scholarship-search/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex = errors.New("index name is required")
)

// ScholarshipQuery defines the structure of a scholarship search request.
type ScholarshipQuery struct {
	Index           string
	Keywords        string
	Level           string
	Country         string
	ScholarshipType string
	FeaturedOnly    bool
	Pagination      struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request for the scholarship index.
// Expired scholarships are excluded; undated ones are always included.
func BuildQuery(sq ScholarshipQuery) (*esapi.SearchRequest, error) {
	if sq.Index == "" {
		return nil, ErrMissingIndex
	}

	body, _ := json.Marshal(BuildQueryBody(sq))

	req := esapi.SearchRequest{
		Index: []string{sq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &sq.Pagination.From,
		Size:  &sq.Pagination.Size,
	}

	return &req, nil
}

// BuildQueryBody assembles the bool query for the given filters.
func BuildQueryBody(sq ScholarshipQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Keyword search
	if sq.Keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  sq.Keywords,
				"fields": []string{"title^3", "description^2", "eligible_fields"},
				"type":   "best_fields",
			},
		})
	}

	if sq.Level != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"eligible_levels": sq.Level},
		})
	}

	if sq.Country != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"eligible_countries": sq.Country},
		})
	}

	if sq.ScholarshipType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"scholarship_type": sq.ScholarshipType},
		})
	}

	if sq.FeaturedOnly {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"is_featured": true},
		})
	}

	// Deadline still open, or no deadline at all
	filterClauses = append(filterClauses, map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []interface{}{
				map[string]interface{}{
					"range": map[string]interface{}{
						"application_deadline": map[string]interface{}{"gte": "now/d"},
					},
				},
				map[string]interface{}{
					"bool": map[string]interface{}{
						"must_not": []interface{}{
							map[string]interface{}{
								"exists": map[string]interface{}{"field": "application_deadline"},
							},
						},
					},
				},
			},
			"minimum_should_match": 1,
		},
	})

	// Default match_all if no keyword
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	// Keyword searches rank by relevance; filter-only searches surface
	// featured awards with the nearest deadlines first.
	if sq.Keywords == "" {
		query["sort"] = []map[string]interface{}{
			{"is_featured": "desc"},
			{"application_deadline": map[string]interface{}{"order": "asc", "missing": "_last"}},
		}
	}

	return query
}
