// internal/matching/config.go
package matching

import "fmt"

// Weights are the per-category maximum points. Their sum is the denominator of
// the overall match percentage.
type Weights struct {
	EducationLevel      int `json:"educationLevel" mapstructure:"education_level"`
	AcademicPerformance int `json:"academicPerformance" mapstructure:"academic_performance"`
	EnglishProficiency  int `json:"englishProficiency" mapstructure:"english_proficiency"`
	Age                 int `json:"age" mapstructure:"age"`
	Nationality         int `json:"nationality" mapstructure:"nationality"`
	FinancialNeed       int `json:"financialNeed" mapstructure:"financial_need"`
	FieldOfStudy        int `json:"fieldOfStudy" mapstructure:"field_of_study"`
	SpecialCategories   int `json:"specialCategories" mapstructure:"special_categories"`
}

// Total returns the sum of all category weights.
func (w Weights) Total() int {
	return w.EducationLevel + w.AcademicPerformance + w.EnglishProficiency +
		w.Age + w.Nationality + w.FinancialNeed + w.FieldOfStudy + w.SpecialCategories
}

// Thresholds are integer percentage cut-offs for the quality tiers. The
// overall percentage is truncated before comparison.
type Thresholds struct {
	MinimumMatchPercentage int `json:"minimumMatchPercentage" mapstructure:"minimum_match_percentage"`
	GoodMatch              int `json:"goodMatch" mapstructure:"good_match"`
	ExcellentMatch         int `json:"excellentMatch" mapstructure:"excellent_match"`
}

// Config is the scoring configuration snapshot. It is passed explicitly to
// the calculator and aggregator and never mutated at runtime.
type Config struct {
	Weights    Weights    `json:"weights" mapstructure:"weights"`
	Thresholds Thresholds `json:"thresholds" mapstructure:"thresholds"`
}

// DefaultConfig returns the production defaults: 100 total points split
// 20/15/15/10/10/10/10/10 with 50/75/90 quality thresholds.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			EducationLevel:      20,
			AcademicPerformance: 15,
			EnglishProficiency:  15,
			Age:                 10,
			Nationality:         10,
			FinancialNeed:       10,
			FieldOfStudy:        10,
			SpecialCategories:   10,
		},
		Thresholds: Thresholds{
			MinimumMatchPercentage: 50,
			GoodMatch:              75,
			ExcellentMatch:         90,
		},
	}
}

// Validate rejects configurations that would make the percentage computation
// divide by zero. Fatal at startup.
func (c Config) Validate() error {
	if c.Weights.Total() <= 0 {
		return fmt.Errorf("matching config invalid: total weight is %d, must be positive", c.Weights.Total())
	}
	return nil
}
