// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// matchRequestSchema constrains the job variables accepted by the matching
// workers. Anything beyond these fields is passed through untouched.
const matchRequestSchema = `{
	"type": "object",
	"properties": {
		"studentId": {"type": "integer", "minimum": 1},
		"scholarshipId": {"type": "integer", "minimum": 1},
		"scholarshipIds": {
			"type": "array",
			"items": {"type": "integer", "minimum": 1},
			"maxItems": 500
		},
		"educationLevel": {"type": "string"},
		"country": {"type": "string"},
		"scholarshipType": {"type": "string"},
		"minimumMatchPercentage": {"type": "integer", "minimum": 0, "maximum": 100},
		"limit": {"type": "integer", "minimum": 1, "maximum": 500},
		"sortBy": {
			"type": "string",
			"enum": ["MATCH_DESC", "MATCH_ASC", "DEADLINE_ASC", "DEADLINE_DESC"]
		}
	},
	"required": ["studentId"]
}`

// matchDetailSchema additionally requires the scholarship id.
const matchDetailSchema = `{
	"type": "object",
	"properties": {
		"studentId": {"type": "integer", "minimum": 1},
		"scholarshipId": {"type": "integer", "minimum": 1}
	},
	"required": ["studentId", "scholarshipId"]
}`

// searchRequestSchema constrains the scholarship search job variables.
const searchRequestSchema = `{
	"type": "object",
	"properties": {
		"level": {"type": "string"},
		"country": {"type": "string"},
		"scholarshipType": {"type": "string"},
		"limit": {"type": "integer", "minimum": 1, "maximum": 1000}
	}
}`

// ValidateMatchRequest checks the raw job variables of a match-scholarships job.
func ValidateMatchRequest(raw string) error {
	return validateAgainst(matchRequestSchema, raw)
}

// ValidateMatchDetailRequest checks the raw job variables of a match-detail job.
func ValidateMatchDetailRequest(raw string) error {
	return validateAgainst(matchDetailSchema, raw)
}

// ValidateSearchRequest checks the raw job variables of a scholarship-search job.
func ValidateSearchRequest(raw string) error {
	return validateAgainst(searchRequestSchema, raw)
}

func validateAgainst(schema, raw string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %v", errs)
	}

	return nil
}
