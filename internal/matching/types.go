// internal/matching/types.go
package matching

import (
	"fmt"
	"math"
	"strings"
	"time"

	"scholarfinder-workers/internal/models"
)

// Quality classifies the overall match percentage against the configured
// thresholds.
type Quality string

const (
	QualityExcellent Quality = "EXCELLENT"
	QualityGood      Quality = "GOOD"
	QualityFair      Quality = "FAIR"
	QualityPoor      Quality = "POOR"
)

// SortMode orders the aggregated match list.
type SortMode string

const (
	SortMatchDesc    SortMode = "MATCH_DESC"
	SortMatchAsc     SortMode = "MATCH_ASC"
	SortDeadlineAsc  SortMode = "DEADLINE_ASC"
	SortDeadlineDesc SortMode = "DEADLINE_DESC"
)

// ParseSortMode maps a request string onto a SortMode; anything unrecognized
// falls back to MATCH_DESC, matching the upstream API contract.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortMatchAsc, SortDeadlineAsc, SortDeadlineDesc:
		return SortMode(s)
	default:
		return SortMatchDesc
	}
}

// Category labels one of the eight evaluation categories.
type Category string

const (
	CategoryEducationLevel      Category = "Education Level"
	CategoryAcademicPerformance Category = "Academic Performance"
	CategoryEnglishProficiency  Category = "English Proficiency"
	CategoryAge                 Category = "Age"
	CategoryNationality         Category = "Nationality"
	CategoryFinancialNeed       Category = "Financial Need"
	CategoryFieldOfStudy        Category = "Field of Study"
	CategorySpecialCategories   Category = "Special Categories"
)

// CategoryScore is the points outcome of a single category evaluation.
type CategoryScore struct {
	Category   Category `json:"category"`
	Earned     int      `json:"earned"`
	Maximum    int      `json:"maximum"`
	Percentage float64  `json:"percentage"`
}

// MatchedCriterion explains one criterion the student satisfies.
type MatchedCriterion struct {
	Category      Category `json:"category"`
	Criterion     string   `json:"criterion"`
	StudentValue  string   `json:"studentValue"`
	RequiredValue string   `json:"requiredValue"`
	PointsEarned  int      `json:"pointsEarned"`
	MaxPoints     int      `json:"maxPoints"`
}

// UnmatchedCriterion explains one criterion the student misses. A mandatory
// miss disqualifies the student regardless of the overall score.
type UnmatchedCriterion struct {
	Category      Category `json:"category"`
	Criterion     string   `json:"criterion"`
	StudentValue  string   `json:"studentValue"`
	RequiredValue string   `json:"requiredValue"`
	PointsMissed  int      `json:"pointsMissed"`
	Mandatory     bool     `json:"mandatory"`
	Suggestion    string   `json:"suggestion,omitempty"`
}

// Breakdown holds the eight per-category scores.
type Breakdown struct {
	EducationLevel      CategoryScore `json:"educationLevel"`
	AcademicPerformance CategoryScore `json:"academicPerformance"`
	EnglishProficiency  CategoryScore `json:"englishProficiency"`
	Age                 CategoryScore `json:"age"`
	Nationality         CategoryScore `json:"nationality"`
	FinancialNeed       CategoryScore `json:"financialNeed"`
	FieldOfStudy        CategoryScore `json:"fieldOfStudy"`
	SpecialCategories   CategoryScore `json:"specialCategories"`
}

// Result is the immutable outcome of matching one student against one
// scholarship.
type Result struct {
	ScholarshipID       int64                `json:"scholarshipId"`
	StudentID           int64                `json:"studentId"`
	MatchPercentage     float64              `json:"matchPercentage"` // 0-100, two decimals
	MatchQuality        Quality              `json:"matchQuality"`
	MatchedCriteria     []MatchedCriterion   `json:"matchedCriteria"`
	UnmatchedCriteria   []UnmatchedCriterion `json:"unmatchedCriteria"`
	Breakdown           Breakdown            `json:"breakdown"`
	Eligible            bool                 `json:"eligible"`
	IneligibilityReason string               `json:"ineligibilityReason,omitempty"`
}

// Request carries the caller-supplied aggregation parameters.
type Request struct {
	MinimumMatchPercentage int      `json:"minimumMatchPercentage"`
	Limit                  int      `json:"limit"`
	SortBy                 SortMode `json:"sortBy"`
}

const defaultLimit = 50

func (r *Request) applyDefaults() {
	if r.Limit <= 0 {
		r.Limit = defaultLimit
	}
	if r.SortBy == "" {
		r.SortBy = SortMatchDesc
	}
}

// ScholarshipMatch is one ranked entry of the aggregated response: the
// scholarship's display fields plus its match summary.
type ScholarshipMatch struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Provider            string     `json:"provider"`
	Country             string     `json:"country"`
	ScholarshipType     string     `json:"scholarshipType,omitempty"`
	Amount              *float64   `json:"amount,omitempty"`
	Currency            string     `json:"currency,omitempty"`
	AmountDisplay       string     `json:"amountDisplay"`
	Level               string     `json:"level"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
	DeadlineDisplay     string     `json:"deadlineDisplay"`
	IsFeatured          bool       `json:"isFeatured"`
	MatchPercentage     float64    `json:"matchPercentage"`
	MatchQuality        Quality    `json:"matchQuality"`
	MatchedCriteria     []string   `json:"matchedCriteria"`
	UnmatchedCriteria   []string   `json:"unmatchedCriteria"`
	IsEligible          bool       `json:"isEligible"`
}

// Response is the aggregated outcome of matching one student against a
// candidate scholarship list.
type Response struct {
	StudentID                 int64              `json:"studentId"`
	StudentName               string             `json:"studentName"`
	TotalScholarshipsAnalyzed int                `json:"totalScholarshipsAnalyzed"`
	MatchesFound              int                `json:"matchesFound"`
	ExcellentMatches          int                `json:"excellentMatches"`
	GoodMatches               int                `json:"goodMatches"`
	FairMatches               int                `json:"fairMatches"`
	Scholarships              []ScholarshipMatch `json:"scholarships"`
	ImprovementSuggestions    []string           `json:"improvementSuggestions"`
}

func newCategoryScore(category Category, earned, maximum int) CategoryScore {
	var pct float64
	if maximum > 0 {
		pct = roundTwo(float64(earned) / float64(maximum) * 100)
	}
	return CategoryScore{Category: category, Earned: earned, Maximum: maximum, Percentage: pct}
}

// roundTwo rounds to two decimals, half up.
func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatScore(v float64) string {
	return fmt.Sprintf("%g", v)
}

func mapToSummary(s *models.Scholarship, r *Result) ScholarshipMatch {
	matched := make([]string, 0, len(r.MatchedCriteria))
	for _, c := range r.MatchedCriteria {
		matched = append(matched, c.Criterion)
	}
	unmatched := make([]string, 0, len(r.UnmatchedCriteria))
	for _, c := range r.UnmatchedCriteria {
		line := c.Criterion
		if c.Suggestion != "" {
			line += " - " + c.Suggestion
		}
		unmatched = append(unmatched, line)
	}

	country := "Multiple"
	if len(s.EligibleCountries) > 0 {
		country = s.EligibleCountries[0]
	}
	level := "All levels"
	if len(s.EligibleLevels) > 0 {
		level = strings.Join(s.EligibleLevels, ", ")
	}

	return ScholarshipMatch{
		ID:                  s.ID,
		Title:               s.Title,
		Description:         s.Description,
		Provider:            fmt.Sprintf("Institution #%d", s.InstitutionID),
		Country:             country,
		ScholarshipType:     s.ScholarshipType,
		Amount:              s.Amount,
		Currency:            s.Currency,
		AmountDisplay:       s.AmountDisplay(),
		Level:               level,
		ApplicationDeadline: s.ApplicationDeadline,
		DeadlineDisplay:     s.DeadlineDisplay(),
		IsFeatured:          s.IsFeatured,
		MatchPercentage:     r.MatchPercentage,
		MatchQuality:        r.MatchQuality,
		MatchedCriteria:     matched,
		UnmatchedCriteria:   unmatched,
		IsEligible:          r.Eligible,
	}
}
