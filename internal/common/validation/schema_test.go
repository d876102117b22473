// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMatchRequest(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"minimal valid request", `{"studentId": 101}`, false},
		{"full valid request", `{"studentId": 101, "minimumMatchPercentage": 50, "limit": 20, "sortBy": "DEADLINE_ASC"}`, false},
		{"missing student id", `{"limit": 20}`, true},
		{"bad sort mode", `{"studentId": 101, "sortBy": "RANDOM"}`, true},
		{"negative minimum", `{"studentId": 101, "minimumMatchPercentage": -5}`, true},
		{"zero student id", `{"studentId": 0}`, true},
		{"explicit candidate ids", `{"studentId": 101, "scholarshipIds": [11, 12]}`, false},
		{"candidate filters", `{"studentId": 101, "educationLevel": "UNDERGRADUATE", "country": "Sri Lanka", "scholarshipType": "FULL"}`, false},
		{"bad candidate id", `{"studentId": 101, "scholarshipIds": [0]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMatchRequest(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMatchDetailRequest(t *testing.T) {
	assert.NoError(t, ValidateMatchDetailRequest(`{"studentId": 101, "scholarshipId": 201}`))
	assert.Error(t, ValidateMatchDetailRequest(`{"studentId": 101}`))
}

func TestValidateSearchRequest(t *testing.T) {
	assert.NoError(t, ValidateSearchRequest(`{"level": "UNDERGRADUATE", "country": "Sri Lanka"}`))
	assert.NoError(t, ValidateSearchRequest(`{}`))
	assert.Error(t, ValidateSearchRequest(`{"limit": 0}`))
}
