// internal/workers/matching/scholarship-search/queries/builders_test.go
package queries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPart(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	query, ok := body["query"].(map[string]interface{})
	require.True(t, ok)
	boolQuery, ok := query["bool"].(map[string]interface{})
	require.True(t, ok)
	return boolQuery
}

func TestBuildQuery_RequiresIndex(t *testing.T) {
	_, err := BuildQuery(ScholarshipQuery{})
	assert.ErrorIs(t, err, ErrMissingIndex)

	req, err := BuildQuery(ScholarshipQuery{Index: "scholarships"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"scholarships"}, req.Index)
}

func TestBuildQueryBody_NoFilters(t *testing.T) {
	body := BuildQueryBody(ScholarshipQuery{Index: "scholarships"})
	boolQuery := boolPart(t, body)

	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	_, isMatchAll := must[0].(map[string]interface{})["match_all"]
	assert.True(t, isMatchAll)

	// Deadline clause is always present
	filters := boolQuery["filter"].([]interface{})
	assert.Len(t, filters, 1)

	// Filter-only searches carry the featured/deadline sort
	assert.Contains(t, body, "sort")
}

func TestBuildQueryBody_KeywordSearch(t *testing.T) {
	body := BuildQueryBody(ScholarshipQuery{Index: "scholarships", Keywords: "engineering"})
	boolQuery := boolPart(t, body)

	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	mm, ok := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "engineering", mm["query"])

	// Relevance ranking, no explicit sort
	assert.NotContains(t, body, "sort")
}

func TestBuildQueryBody_TermFilters(t *testing.T) {
	body := BuildQueryBody(ScholarshipQuery{
		Index:           "scholarships",
		Level:           "UNDERGRADUATE",
		Country:         "United Kingdom",
		ScholarshipType: "FULL",
		FeaturedOnly:    true,
	})
	boolQuery := boolPart(t, body)

	filters := boolQuery["filter"].([]interface{})
	// level, country, type, featured, deadline
	require.Len(t, filters, 5)

	fields := make([]string, 0, len(filters))
	for _, f := range filters {
		clause := f.(map[string]interface{})
		if term, ok := clause["term"].(map[string]interface{}); ok {
			for k := range term {
				fields = append(fields, k)
			}
		}
	}
	assert.ElementsMatch(t, []string{"eligible_levels", "eligible_countries", "scholarship_type", "is_featured"}, fields)
}

func TestBuildQueryBody_DeadlineClause(t *testing.T) {
	body := BuildQueryBody(ScholarshipQuery{Index: "scholarships"})
	boolQuery := boolPart(t, body)

	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 1)
	deadline := filters[0].(map[string]interface{})["bool"].(map[string]interface{})

	should := deadline["should"].([]interface{})
	require.Len(t, should, 2)
	assert.Equal(t, 1, deadline["minimum_should_match"])

	rangeClause := should[0].(map[string]interface{})["range"].(map[string]interface{})
	gte := rangeClause["application_deadline"].(map[string]interface{})["gte"]
	assert.Equal(t, "now/d", gte)
}
