// internal/matching/calculator.go
package matching

import (
	"time"

	"scholarfinder-workers/internal/models"
)

// Calculate scores one student against one scholarship under the given
// configuration. The age check uses the supplied now so one aggregation run
// sees a single consistent timestamp.
func Calculate(cfg Config, student *models.StudentProfile, sch *models.Scholarship, now time.Time) Result {
	w := cfg.Weights

	// Evaluation order is fixed. It determines which mandatory miss becomes
	// the ineligibility reason when several fail.
	outcomes := []categoryOutcome{
		evaluateEducationLevel(student, sch, w.EducationLevel),
		evaluateAcademicPerformance(student, sch, w.AcademicPerformance),
		evaluateEnglishProficiency(student, sch, w.EnglishProficiency),
		evaluateAge(student, sch, w.Age, now),
		evaluateNationality(student, sch, w.Nationality),
		evaluateFinancialNeed(student, sch, w.FinancialNeed),
		evaluateFieldOfStudy(student, sch, w.FieldOfStudy),
		evaluateSpecialCategories(student, sch, w.SpecialCategories),
	}

	result := Result{
		ScholarshipID: sch.ID,
		StudentID:     student.ID,
		Eligible:      true,
	}

	totalEarned := 0
	for _, o := range outcomes {
		totalEarned += o.score.Earned
		result.MatchedCriteria = append(result.MatchedCriteria, o.matched...)
		result.UnmatchedCriteria = append(result.UnmatchedCriteria, o.unmatched...)
	}

	result.Breakdown = Breakdown{
		EducationLevel:      outcomes[0].score,
		AcademicPerformance: outcomes[1].score,
		EnglishProficiency:  outcomes[2].score,
		Age:                 outcomes[3].score,
		Nationality:         outcomes[4].score,
		FinancialNeed:       outcomes[5].score,
		FieldOfStudy:        outcomes[6].score,
		SpecialCategories:   outcomes[7].score,
	}

	for _, u := range result.UnmatchedCriteria {
		if u.Mandatory {
			result.Eligible = false
			result.IneligibilityReason = u.Criterion
			break
		}
	}

	result.MatchPercentage = roundTwo(float64(totalEarned) / float64(w.Total()) * 100)
	result.MatchQuality = qualityFor(cfg.Thresholds, result.MatchPercentage)

	return result
}

// qualityFor classifies a percentage against the tier thresholds. The
// fractional part is dropped before comparison, so 89.99 stays GOOD.
func qualityFor(t Thresholds, percentage float64) Quality {
	p := int(percentage)
	switch {
	case p >= t.ExcellentMatch:
		return QualityExcellent
	case p >= t.GoodMatch:
		return QualityGood
	case p >= t.MinimumMatchPercentage:
		return QualityFair
	default:
		return QualityPoor
	}
}
