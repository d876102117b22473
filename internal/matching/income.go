// internal/matching/income.go
package matching

// Household income bands, ordered lowest to highest. Financial-need
// comparison works on the ordinal, not the raw amounts.
var incomeLevels = map[string]int{
	"Below LKR 30,000":      1,
	"LKR 30,000 - 50,000":   2,
	"LKR 50,000 - 75,000":   3,
	"LKR 75,000 - 100,000":  4,
	"LKR 100,000 - 150,000": 5,
	"LKR 150,000 - 200,000": 6,
	"Above LKR 200,000":     7,
}

// unknownIncomeLevel is the lenience default for labels outside the table:
// mid-scale partial credit rather than an error.
const unknownIncomeLevel = 5

func incomeLevel(band string) int {
	if lvl, ok := incomeLevels[band]; ok {
		return lvl
	}
	return unknownIncomeLevel
}
