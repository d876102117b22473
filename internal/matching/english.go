// internal/matching/english.go
package matching

import (
	"math"
	"strings"
)

// TestType identifies an English proficiency test.
type TestType string

const (
	TestIELTS    TestType = "IELTS"
	TestTOEFL    TestType = "TOEFL"
	TestTOEFLIBT TestType = "TOEFL IBT"
	TestTOEFLITP TestType = "TOEFL ITP"
	TestPTE      TestType = "PTE"
)

// ParseTestType normalizes a stored test label. Unknown labels are kept
// as-is (uppercased) so they still compare by name.
func ParseTestType(s string) TestType {
	return TestType(strings.ToUpper(strings.TrimSpace(s)))
}

// equivalentTests is the set of tests accepted as mutually convertible.
var equivalentTests = map[TestType]bool{
	TestIELTS:    true,
	TestTOEFL:    true,
	TestTOEFLIBT: true,
	TestTOEFLITP: true,
	TestPTE:      true,
}

// isEquivalentTest reports whether both tests belong to the IELTS/TOEFL/PTE
// equivalence family.
func isEquivalentTest(a, b TestType) bool {
	return equivalentTests[a] && equivalentTests[b]
}

// ieltsToTOEFLFactor approximates the published concordance:
// IELTS 7.0 is roughly TOEFL 94.
const ieltsToTOEFLFactor = 13.4

// normalizeEnglishScore converts a score from one test's scale onto
// another's. Same-test is identity; IELTS<->TOEFL uses the fixed linear
// factor; other pairs pass through unconverted.
func normalizeEnglishScore(score float64, from, to TestType) float64 {
	if from == to {
		return score
	}
	if from == TestIELTS && to == TestTOEFL {
		return score * ieltsToTOEFLFactor
	}
	if from == TestTOEFL && to == TestIELTS {
		// One decimal, half up, like the source conversion table.
		return math.Round(score/ieltsToTOEFLFactor*10) / 10
	}
	return score
}
