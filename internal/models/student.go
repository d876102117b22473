// internal/models/student.go
package models

import (
	"strconv"
	"time"
)

// StudentProfile is a read-only snapshot of a student profile from the users
// schema. The matching workers resolve it before the engine runs; the engine
// never mutates it.
type StudentProfile struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`

	FullName    string     `json:"fullName"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Nationality string     `json:"nationality"`
	District    string     `json:"district,omitempty"`
	Province    string     `json:"province,omitempty"`

	// Academic
	IntendedLevel string `json:"intendedLevel"` // UNDERGRADUATE, POSTGRADUATE, PHD
	ALStream      string `json:"alStream"`      // SCIENCE, COMMERCE, ARTS
	Subject1      string `json:"subject1,omitempty"`
	Grade1        string `json:"grade1,omitempty"`
	Subject2      string `json:"subject2,omitempty"`
	Grade2        string `json:"grade2,omitempty"`
	Subject3      string `json:"subject3,omitempty"`
	Grade3        string `json:"grade3,omitempty"`
	ZScore        *float64 `json:"zScore,omitempty"`

	// English proficiency
	EnglishTest  string `json:"englishTest,omitempty"` // IELTS, TOEFL, PTE
	OverallScore string `json:"overallScore,omitempty"`

	// Financial
	HouseholdIncome string `json:"householdIncome,omitempty"`

	// Background flags, stored as "Yes"/"No" by the profile service
	Disability      string `json:"disability,omitempty"`
	Sports          string `json:"sports,omitempty"`
	Leadership      string `json:"leadership,omitempty"`
	FirstGeneration string `json:"firstGeneration,omitempty"`
	WillingToReturn string `json:"willingToReturn,omitempty"`

	// Preferences
	PreferredCountries []string `json:"preferredCountries,omitempty"`
	PreferredFields    []string `json:"preferredFields,omitempty"`

	ProfileCompletionPercentage int `json:"profileCompletionPercentage"`
}

// AgeAt derives the student's age in whole years at the given time.
// The second return value is false when no date of birth is on record.
func (s *StudentProfile) AgeAt(now time.Time) (int, bool) {
	if s.DateOfBirth == nil {
		return 0, false
	}
	dob := *s.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age, true
}

// GPAEquivalent derives a 0-4 score from the A/L grades: A=4, B=3, C=2, S=1,
// anything else 0, averaged over the grades present. Returns false when no
// grade is recorded at all.
func (s *StudentProfile) GPAEquivalent() (float64, bool) {
	var total float64
	var count int
	for _, g := range []string{s.Grade1, s.Grade2, s.Grade3} {
		if g == "" {
			continue
		}
		total += gradePoints(g)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// ALPassCount counts A/L subjects with a passing grade (A, B, C or S).
func (s *StudentProfile) ALPassCount() int {
	count := 0
	for _, g := range []string{s.Grade1, s.Grade2, s.Grade3} {
		if gradePoints(g) > 0 {
			count++
		}
	}
	return count
}

// EnglishScoreValue parses the stored overall score leniently: a malformed
// value is treated the same as no score on record.
func (s *StudentProfile) EnglishScoreValue() (float64, bool) {
	if s.OverallScore == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s.OverallScore, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HasFlag reports whether a "Yes"/"No" background flag is set.
func HasFlag(v string) bool {
	return v == "Yes" || v == "yes" || v == "YES"
}

func gradePoints(grade string) float64 {
	switch grade {
	case "A", "a":
		return 4
	case "B", "b":
		return 3
	case "C", "c":
		return 2
	case "S", "s":
		return 1
	default:
		return 0
	}
}
