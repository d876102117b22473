// internal/matching/evaluate.go
package matching

import (
	"fmt"
	"strings"
	"time"

	"scholarfinder-workers/internal/models"
)

// categoryOutcome is what every evaluator produces: the category's points
// plus the explanatory matched/unmatched entries. Evaluators are pure; all
// state flows through parameters.
type categoryOutcome struct {
	score     CategoryScore
	matched   []MatchedCriterion
	unmatched []UnmatchedCriterion
}

// evaluateEducationLevel awards full credit when the scholarship has no
// level restriction or the student's intended level is allowed. A level
// mismatch is a mandatory miss.
func evaluateEducationLevel(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	if len(sch.EligibleLevels) > 0 && student.IntendedLevel != "" {
		if containsFold(sch.EligibleLevels, student.IntendedLevel) {
			earned = weight
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryEducationLevel,
				Criterion:     "Education level matches",
				StudentValue:  student.IntendedLevel,
				RequiredValue: strings.Join(sch.EligibleLevels, ", "),
				PointsEarned:  earned,
				MaxPoints:     weight,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryEducationLevel,
				Criterion:     "Education level does not match",
				StudentValue:  student.IntendedLevel,
				RequiredValue: strings.Join(sch.EligibleLevels, ", "),
				PointsMissed:  weight,
				Mandatory:     true,
				Suggestion:    "This scholarship is for " + strings.Join(sch.EligibleLevels, " or ") + " students",
			})
		}
	} else {
		earned = weight
	}

	out.score = newCategoryScore(CategoryEducationLevel, earned, weight)
	return out
}

// evaluateAcademicPerformance splits its weight over three sub-criteria:
// GPA-equivalent, Z-score and A/L stream. Each defaults to full credit when
// the scholarship imposes no requirement; none of them is mandatory.
func evaluateAcademicPerformance(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	// The third share absorbs the division remainder so the three maxima
	// always sum to the category weight.
	gpaShare := weight / 3
	zShare := weight / 3
	streamShare := weight - 2*(weight/3)

	studentGPA, hasGPA := student.GPAEquivalent()
	if sch.MinGPA != nil && hasGPA {
		if studentGPA >= *sch.MinGPA {
			earned += gpaShare
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryAcademicPerformance,
				Criterion:     "GPA requirement met",
				StudentValue:  fmt.Sprintf("%.2f", studentGPA),
				RequiredValue: "Minimum " + formatScore(*sch.MinGPA),
				PointsEarned:  gpaShare,
				MaxPoints:     gpaShare,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryAcademicPerformance,
				Criterion:     "GPA below requirement",
				StudentValue:  fmt.Sprintf("%.2f", studentGPA),
				RequiredValue: "Minimum " + formatScore(*sch.MinGPA),
				PointsMissed:  gpaShare,
				Mandatory:     false,
				Suggestion:    "Improve academic grades to meet minimum GPA of " + formatScore(*sch.MinGPA),
			})
		}
	} else {
		earned += gpaShare
	}

	if sch.MinZScore != nil && student.ZScore != nil {
		if *student.ZScore >= *sch.MinZScore {
			earned += zShare
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryAcademicPerformance,
				Criterion:     "Z-score requirement met",
				StudentValue:  formatScore(*student.ZScore),
				RequiredValue: "Minimum " + formatScore(*sch.MinZScore),
				PointsEarned:  zShare,
				MaxPoints:     zShare,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryAcademicPerformance,
				Criterion:     "Z-score below requirement",
				StudentValue:  formatScore(*student.ZScore),
				RequiredValue: "Minimum " + formatScore(*sch.MinZScore),
				PointsMissed:  zShare,
				Mandatory:     false,
				Suggestion:    "Z-score requirement not met",
			})
		}
	} else {
		earned += zShare
	}

	if sch.RequiredALStream != "" && !strings.EqualFold(sch.RequiredALStream, "ANY") && student.ALStream != "" {
		if strings.EqualFold(sch.RequiredALStream, student.ALStream) {
			earned += streamShare
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryAcademicPerformance,
				Criterion:     "A/L stream matches",
				StudentValue:  student.ALStream,
				RequiredValue: sch.RequiredALStream,
				PointsEarned:  streamShare,
				MaxPoints:     streamShare,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryAcademicPerformance,
				Criterion:     "A/L stream does not match",
				StudentValue:  student.ALStream,
				RequiredValue: sch.RequiredALStream,
				PointsMissed:  streamShare,
				Mandatory:     false,
				Suggestion:    "This scholarship prefers " + sch.RequiredALStream + " stream students",
			})
		}
	} else {
		earned += streamShare
	}

	out.score = newCategoryScore(CategoryAcademicPerformance, earned, weight)
	return out
}

// evaluateEnglishProficiency compares the student's test result against the
// required one, converting across the IELTS/TOEFL/PTE equivalence family.
// Having no test at all when one is required blocks eligibility.
func evaluateEnglishProficiency(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	requiredTest := ParseTestType(sch.RequiredEnglishTest)
	studentTest := ParseTestType(student.EnglishTest)
	studentScore, hasScore := student.EnglishScoreValue()

	switch {
	case sch.RequiredEnglishTest == "" || sch.MinEnglishScore == nil:
		// No English requirement.
		earned = weight

	case student.EnglishTest == "" || !hasScore:
		out.unmatched = append(out.unmatched, UnmatchedCriterion{
			Category:      CategoryEnglishProficiency,
			Criterion:     "English proficiency test not provided",
			StudentValue:  "Not available",
			RequiredValue: fmt.Sprintf("%s %s", requiredTest, formatScore(*sch.MinEnglishScore)),
			PointsMissed:  weight,
			Mandatory:     true,
			Suggestion: fmt.Sprintf("Take %s test and achieve score of %s or higher",
				requiredTest, formatScore(*sch.MinEnglishScore)),
		})

	case studentTest == requiredTest || isEquivalentTest(studentTest, requiredTest):
		normalized := normalizeEnglishScore(studentScore, studentTest, requiredTest)
		if normalized >= *sch.MinEnglishScore {
			earned = weight
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryEnglishProficiency,
				Criterion:     "English proficiency met",
				StudentValue:  fmt.Sprintf("%s %s", studentTest, formatScore(studentScore)),
				RequiredValue: fmt.Sprintf("%s %s", requiredTest, formatScore(*sch.MinEnglishScore)),
				PointsEarned:  weight,
				MaxPoints:     weight,
			})
		} else {
			// Partial credit for having a comparable test.
			earned = weight / 2
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryEnglishProficiency,
				Criterion:     "English score below requirement",
				StudentValue:  fmt.Sprintf("%s %s", studentTest, formatScore(studentScore)),
				RequiredValue: fmt.Sprintf("%s %s or higher", requiredTest, formatScore(*sch.MinEnglishScore)),
				PointsMissed:  weight - earned,
				Mandatory:     false,
				Suggestion: fmt.Sprintf("Retake %s to achieve score of %s",
					requiredTest, formatScore(*sch.MinEnglishScore)),
			})
		}

	default:
		// A test outside the equivalence family is still informative.
		earned = weight / 3
		out.unmatched = append(out.unmatched, UnmatchedCriterion{
			Category:      CategoryEnglishProficiency,
			Criterion:     "Different English test taken",
			StudentValue:  string(studentTest),
			RequiredValue: fmt.Sprintf("%s required", requiredTest),
			PointsMissed:  weight - earned,
			Mandatory:     false,
			Suggestion: fmt.Sprintf("Take %s test with minimum score of %s",
				requiredTest, formatScore(*sch.MinEnglishScore)),
		})
	}

	out.score = newCategoryScore(CategoryEnglishProficiency, earned, weight)
	return out
}

// evaluateAge checks min/max age bounds. Unknown age earns half credit; a
// violated bound is a mandatory miss.
func evaluateAge(student *models.StudentProfile, sch *models.Scholarship, weight int, now time.Time) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	age, known := student.AgeAt(now)
	if known {
		valid := true
		requirement := ""
		if sch.MinAge != nil && age < *sch.MinAge {
			valid = false
			requirement = fmt.Sprintf("Minimum age %d", *sch.MinAge)
		}
		if sch.MaxAge != nil && age > *sch.MaxAge {
			valid = false
			requirement = fmt.Sprintf("Maximum age %d", *sch.MaxAge)
		}

		if valid {
			earned = weight
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryAge,
				Criterion:     "Age requirement met",
				StudentValue:  fmt.Sprintf("%d years old", age),
				RequiredValue: ageRange(sch.MinAge, sch.MaxAge),
				PointsEarned:  weight,
				MaxPoints:     weight,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryAge,
				Criterion:     "Age outside required range",
				StudentValue:  fmt.Sprintf("%d years old", age),
				RequiredValue: requirement,
				PointsMissed:  weight,
				Mandatory:     true,
				Suggestion:    "Age requirement cannot be changed",
			})
		}
	} else {
		// Cannot verify; partial credit.
		earned = weight / 2
	}

	out.score = newCategoryScore(CategoryAge, earned, weight)
	return out
}

// evaluateNationality checks the eligible-country list. The Sri Lanka entry
// also accepts "Sri Lankan" nationality strings.
func evaluateNationality(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	if len(sch.EligibleCountries) > 0 && student.Nationality != "" {
		eligible := false
		for _, country := range sch.EligibleCountries {
			if strings.EqualFold(country, student.Nationality) ||
				(strings.EqualFold(country, "Sri Lanka") && strings.Contains(student.Nationality, "Sri Lankan")) {
				eligible = true
				break
			}
		}

		if eligible {
			earned = weight
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategoryNationality,
				Criterion:     "Nationality eligible",
				StudentValue:  student.Nationality,
				RequiredValue: strings.Join(sch.EligibleCountries, ", "),
				PointsEarned:  weight,
				MaxPoints:     weight,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategoryNationality,
				Criterion:     "Nationality not in eligible list",
				StudentValue:  student.Nationality,
				RequiredValue: strings.Join(sch.EligibleCountries, ", "),
				PointsMissed:  weight,
				Mandatory:     true,
				Suggestion:    "This scholarship is only for citizens of " + strings.Join(sch.EligibleCountries, ", "),
			})
		}
	} else {
		earned = weight
	}

	out.score = newCategoryScore(CategoryNationality, earned, weight)
	return out
}

// evaluateFinancialNeed compares household income bands on their ordinal
// scale. Income above the ceiling narrows quality but never disqualifies.
func evaluateFinancialNeed(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	if sch.RequiresFinancialNeed {
		switch {
		case student.HouseholdIncome != "" && sch.MaxHouseholdIncome != "":
			studentLevel := incomeLevel(student.HouseholdIncome)
			maxLevel := incomeLevel(sch.MaxHouseholdIncome)
			if studentLevel <= maxLevel {
				earned = weight
				out.matched = append(out.matched, MatchedCriterion{
					Category:      CategoryFinancialNeed,
					Criterion:     "Financial need criteria met",
					StudentValue:  student.HouseholdIncome,
					RequiredValue: "Maximum " + sch.MaxHouseholdIncome,
					PointsEarned:  weight,
					MaxPoints:     weight,
				})
			} else {
				out.unmatched = append(out.unmatched, UnmatchedCriterion{
					Category:      CategoryFinancialNeed,
					Criterion:     "Income above threshold",
					StudentValue:  student.HouseholdIncome,
					RequiredValue: "Maximum " + sch.MaxHouseholdIncome,
					PointsMissed:  weight,
					Mandatory:     false,
					Suggestion:    "This scholarship prioritizes students from lower income backgrounds",
				})
			}
		case student.HouseholdIncome != "":
			// Need required but no explicit ceiling stated.
			earned = weight / 2
		}
	} else {
		earned = weight
	}

	out.score = newCategoryScore(CategoryFinancialNeed, earned, weight)
	return out
}

// evaluateFieldOfStudy fuzzy-matches the student's preferred fields against
// the eligible list: case-insensitive equality or substring containment in
// either direction.
func evaluateFieldOfStudy(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	earned := 0

	if len(sch.EligibleFields) > 0 {
		if len(student.PreferredFields) > 0 {
			if fieldsOverlap(student.PreferredFields, sch.EligibleFields) {
				earned = weight
				out.matched = append(out.matched, MatchedCriterion{
					Category:      CategoryFieldOfStudy,
					Criterion:     "Field of study matches",
					StudentValue:  strings.Join(student.PreferredFields, ", "),
					RequiredValue: strings.Join(sch.EligibleFields, ", "),
					PointsEarned:  weight,
					MaxPoints:     weight,
				})
			} else {
				out.unmatched = append(out.unmatched, UnmatchedCriterion{
					Category:      CategoryFieldOfStudy,
					Criterion:     "Field of study does not match",
					StudentValue:  strings.Join(student.PreferredFields, ", "),
					RequiredValue: strings.Join(sch.EligibleFields, ", "),
					PointsMissed:  weight,
					Mandatory:     false,
					Suggestion:    "This scholarship is for " + strings.Join(sch.EligibleFields, ", ") + " fields",
				})
			}
		} else {
			// No preference stated; cannot rule the student out.
			earned = weight / 2
		}
	} else {
		earned = weight
	}

	out.score = newCategoryScore(CategoryFieldOfStudy, earned, weight)
	return out
}

// evaluateSpecialCategories scores the flagged sub-criteria: sports,
// leadership, first-generation, disability and return-to-home. Each share is
// weight/4. First-generation and disability are bonus-only; return-to-home
// is mandatory when flagged. The denominator stays at least 4, and earned
// points are capped at the category weight so the disability bonus cannot
// push the category above 100%.
func evaluateSpecialCategories(student *models.StudentProfile, sch *models.Scholarship, weight int) categoryOutcome {
	out := categoryOutcome{}
	share := weight / 4
	criteriaCount := 0
	matchedCount := 0

	if sch.SportsAchievementRequired {
		criteriaCount++
		if models.HasFlag(student.Sports) {
			matchedCount++
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "Sports achievement",
				StudentValue:  "Yes",
				RequiredValue: "Sports achievement required",
				PointsEarned:  share,
				MaxPoints:     share,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "Sports achievement not indicated",
				StudentValue:  "No",
				RequiredValue: "Sports achievement preferred",
				PointsMissed:  share,
				Mandatory:     false,
				Suggestion:    "Highlight any sports achievements in your profile",
			})
		}
	}

	if sch.LeadershipRequired {
		criteriaCount++
		if models.HasFlag(student.Leadership) {
			matchedCount++
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "Leadership experience",
				StudentValue:  "Yes",
				RequiredValue: "Leadership experience required",
				PointsEarned:  share,
				MaxPoints:     share,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "Leadership experience not indicated",
				StudentValue:  "No",
				RequiredValue: "Leadership experience preferred",
				PointsMissed:  share,
				Mandatory:     false,
				Suggestion:    "Highlight any leadership roles in your profile",
			})
		}
	}

	if sch.FirstGenerationPriority {
		criteriaCount++
		if models.HasFlag(student.FirstGeneration) {
			matchedCount++
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "First-generation student",
				StudentValue:  "Yes",
				RequiredValue: "First-generation students prioritized",
				PointsEarned:  share,
				MaxPoints:     share,
			})
		}
		// Bonus-only: no unmatched entry when missed.
	}

	if sch.DisabilityFriendly && models.HasFlag(student.Disability) {
		// Pure bonus; never enters the denominator.
		matchedCount++
		out.matched = append(out.matched, MatchedCriterion{
			Category:      CategorySpecialCategories,
			Criterion:     "Disability-friendly scholarship",
			StudentValue:  "Yes",
			RequiredValue: "Disability support available",
			PointsEarned:  share,
			MaxPoints:     share,
		})
	}

	if sch.ReturnToHomeRequired {
		criteriaCount++
		if models.HasFlag(student.WillingToReturn) {
			matchedCount++
			out.matched = append(out.matched, MatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "Willing to return to home country",
				StudentValue:  "Yes",
				RequiredValue: "Must return after studies",
				PointsEarned:  share,
				MaxPoints:     share,
			})
		} else {
			out.unmatched = append(out.unmatched, UnmatchedCriterion{
				Category:      CategorySpecialCategories,
				Criterion:     "Return requirement",
				StudentValue:  "Not specified",
				RequiredValue: "Must return to home country after studies",
				PointsMissed:  share,
				Mandatory:     true,
				Suggestion:    "This scholarship requires returning to your home country",
			})
		}
	}

	earned := weight
	if criteriaCount > 0 {
		denominator := criteriaCount
		if denominator < 4 {
			denominator = 4
		}
		earned = matchedCount * weight / denominator
		if earned > weight {
			earned = weight
		}
	}

	out.score = newCategoryScore(CategorySpecialCategories, earned, weight)
	return out
}

func ageRange(min, max *int) string {
	lo := "No min"
	if min != nil {
		lo = fmt.Sprintf("%d", *min)
	}
	hi := "No max"
	if max != nil {
		hi = fmt.Sprintf("%d", *max)
	}
	return lo + " - " + hi
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func fieldsOverlap(studentFields, eligibleFields []string) bool {
	for _, sf := range studentFields {
		sfLower := strings.ToLower(sf)
		for _, ef := range eligibleFields {
			efLower := strings.ToLower(ef)
			if sfLower == efLower ||
				strings.Contains(efLower, sfLower) ||
				strings.Contains(sfLower, efLower) {
				return true
			}
		}
	}
	return false
}
