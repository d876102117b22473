// internal/models/scholarship.go
package models

import (
	"strconv"
	"time"
)

// Scholarship is an eligibility criteria record from the scholarships schema.
type Scholarship struct {
	ID            int64  `json:"id"`
	InstitutionID int64  `json:"institutionId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`

	ScholarshipType    string   `json:"scholarshipType,omitempty"` // FULL, PARTIAL, TUITION, LIVING_EXPENSES
	CoveragePercentage *int     `json:"coveragePercentage,omitempty"`
	Amount             *float64 `json:"amount,omitempty"`
	Currency           string   `json:"currency,omitempty"`

	// Eligibility criteria
	EligibleCountries []string `json:"eligibleCountries,omitempty"`
	EligibleFields    []string `json:"eligibleFields,omitempty"`
	EligibleLevels    []string `json:"eligibleLevels,omitempty"` // UNDERGRADUATE, POSTGRADUATE, PHD
	MinGPA            *float64 `json:"minGpa,omitempty"`
	MinAge            *int     `json:"minAge,omitempty"`
	MaxAge            *int     `json:"maxAge,omitempty"`

	RequiredEnglishTest string   `json:"requiredEnglishTest,omitempty"` // IELTS, TOEFL, PTE
	MinEnglishScore     *float64 `json:"minEnglishScore,omitempty"`

	MinALPasses      *int     `json:"minAlPasses,omitempty"`
	RequiredALStream string   `json:"requiredAlStream,omitempty"` // SCIENCE, COMMERCE, ARTS, ANY
	MinZScore        *float64 `json:"minZScore,omitempty"`

	RequiresFinancialNeed bool   `json:"requiresFinancialNeed"`
	MaxHouseholdIncome    string `json:"maxHouseholdIncome,omitempty"`

	SportsAchievementRequired bool `json:"sportsAchievementRequired"`
	LeadershipRequired        bool `json:"leadershipRequired"`
	FirstGenerationPriority   bool `json:"firstGenerationPriority"`
	DisabilityFriendly        bool `json:"disabilityFriendly"`
	ReturnToHomeRequired      bool `json:"returnToHomeRequired"`

	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	IsFeatured          bool       `json:"isFeatured"`
}

// AmountDisplay renders the award for listings: fully funded scholarships
// read as such, fixed awards as "<currency> <amount>", coverage-based ones as
// a percentage.
func (s *Scholarship) AmountDisplay() string {
	if s.ScholarshipType == "FULL" || s.ScholarshipType == "full" {
		return "Fully Funded"
	}
	if s.Amount != nil {
		return s.Currency + " " + strconv.FormatFloat(*s.Amount, 'f', -1, 64)
	}
	if s.CoveragePercentage != nil {
		return strconv.Itoa(*s.CoveragePercentage) + "% Coverage"
	}
	return "Contact for details"
}

// DeadlineDisplay renders the application deadline, or "No deadline".
func (s *Scholarship) DeadlineDisplay() string {
	if s.ApplicationDeadline == nil {
		return "No deadline"
	}
	return s.ApplicationDeadline.Format("2006-01-02")
}
