// internal/workers/matching/match-detail/models.go
package matchdetail

import (
	"scholarfinder-workers/internal/matching"
	"scholarfinder-workers/internal/models"
)

type Input struct {
	StudentID     int64 `json:"studentId"`
	ScholarshipID int64 `json:"scholarshipId"`

	// Optional inline records, used when the orchestrating process has
	// already resolved them.
	StudentProfile *models.StudentProfile `json:"studentProfile,omitempty"`
	Scholarship    *models.Scholarship    `json:"scholarship,omitempty"`
}

type Output struct {
	CorrelationID    string          `json:"correlationId"`
	ScholarshipTitle string          `json:"scholarshipTitle"`
	AmountDisplay    string          `json:"amountDisplay"`
	DeadlineDisplay  string          `json:"deadlineDisplay"`
	Match            matching.Result `json:"match"`
}
