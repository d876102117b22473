// internal/workers/matching/match-scholarships/models.go
package matchscholarships

import (
	"scholarfinder-workers/internal/matching"
	"scholarfinder-workers/internal/models"
)

type Input struct {
	StudentID              int64  `json:"studentId"`
	MinimumMatchPercentage int    `json:"minimumMatchPercentage"`
	Limit                  int    `json:"limit"`
	SortBy                 string `json:"sortBy"`

	// Explicit candidate set; overrides the active-scholarship query.
	ScholarshipIDs []int64 `json:"scholarshipIds,omitempty"`

	// Optional candidate pre-filters. A scholarship with no restriction on a
	// filtered dimension passes through.
	EducationLevel  string `json:"educationLevel,omitempty"`
	Country         string `json:"country,omitempty"`
	ScholarshipType string `json:"scholarshipType,omitempty"`

	// Optional inline records, used when the orchestrating process has
	// already resolved them.
	StudentProfile *models.StudentProfile `json:"studentProfile,omitempty"`
	Scholarships   []*models.Scholarship  `json:"scholarships,omitempty"`
}

type Output struct {
	CorrelationID string `json:"correlationId"`
	*matching.Response
}
