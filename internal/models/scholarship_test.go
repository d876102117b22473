// internal/models/scholarship_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScholarship_AmountDisplay(t *testing.T) {
	amount := 5000.0
	coverage := 75

	tests := []struct {
		name string
		sch  Scholarship
		want string
	}{
		{"full scholarships read as fully funded", Scholarship{ScholarshipType: "FULL", Amount: &amount}, "Fully Funded"},
		{"fixed award with currency", Scholarship{ScholarshipType: "PARTIAL", Amount: &amount, Currency: "USD"}, "USD 5000"},
		{"coverage percentage", Scholarship{ScholarshipType: "TUITION", CoveragePercentage: &coverage}, "75% Coverage"},
		{"nothing specified", Scholarship{}, "Contact for details"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sch.AmountDisplay())
		})
	}
}

func TestScholarship_DeadlineDisplay(t *testing.T) {
	deadline := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	withDeadline := Scholarship{ApplicationDeadline: &deadline}
	assert.Equal(t, "2025-12-31", withDeadline.DeadlineDisplay())

	without := Scholarship{}
	assert.Equal(t, "No deadline", without.DeadlineDisplay())
}
