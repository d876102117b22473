// internal/workers/matching/match-detail/handler_test.go
package matchdetail

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	apperrors "scholarfinder-workers/internal/common/errors"
	"scholarfinder-workers/internal/common/logger"
	"scholarfinder-workers/internal/matching"
	"scholarfinder-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		CacheTTL: 10 * time.Minute,
		Timeout:  15 * time.Second,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func setupMockRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
}

func createTestProfile() *models.StudentProfile {
	dob := time.Date(2003, 3, 15, 0, 0, 0, 0, time.UTC)
	zScore := 1.5
	return &models.StudentProfile{
		ID:                          101,
		FullName:                    "Nimal Perera",
		DateOfBirth:                 &dob,
		Nationality:                 "Sri Lankan",
		IntendedLevel:               "UNDERGRADUATE",
		ALStream:                    "SCIENCE",
		Grade1:                      "A",
		Grade2:                      "B",
		Grade3:                      "B",
		ZScore:                      &zScore,
		EnglishTest:                 "IELTS",
		OverallScore:                "6.5",
		HouseholdIncome:             "Below LKR 30,000",
		Sports:                      "Yes",
		Leadership:                  "Yes",
		FirstGeneration:             "Yes",
		WillingToReturn:             "Yes",
		Disability:                  "No",
		PreferredFields:             []string{"Engineering"},
		ProfileCompletionPercentage: 95,
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func newTestHandler(t *testing.T, db *sql.DB) *Handler {
	return NewHandler(createTestConfig(), db, setupMockRedis(), matching.DefaultConfig(), newTestLogger(t))
}

var scholarshipColumns = []string{
	"id", "institution_id", "title", "description", "scholarship_type", "coverage_percentage",
	"amount", "currency", "eligible_countries", "eligible_fields", "eligible_levels",
	"min_gpa", "min_age", "max_age", "required_english_test", "min_english_score",
	"min_al_passes", "required_al_stream", "min_z_score",
	"requires_financial_need", "max_household_income",
	"sports_achievement_required", "leadership_required", "first_generation_priority",
	"disability_friendly", "return_to_home_required",
	"application_deadline", "is_featured",
}

func scholarshipRow(id int64) *sqlmock.Rows {
	emptyList, _ := json.Marshal([]string{})
	levels, _ := json.Marshal([]string{"UNDERGRADUATE"})
	return sqlmock.NewRows(scholarshipColumns).
		AddRow(id, int64(301), "Commonwealth Shared Scholarship", "Full tuition and living costs", "FULL", nil,
			nil, "", emptyList, emptyList, levels,
			3.0, nil, nil, "IELTS", 6.5,
			nil, "SCIENCE", nil,
			false, "",
			false, false, false,
			false, false,
			time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), true)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_WithInlineData(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	input := &Input{
		StudentID:      101,
		ScholarshipID:  201,
		StudentProfile: createTestProfile(),
		Scholarship:    &models.Scholarship{ID: 201, InstitutionID: 301, Title: "Open Merit Award"},
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.NotEmpty(t, output.CorrelationID)
	assert.Equal(t, "Open Merit Award", output.ScholarshipTitle)
	assert.Equal(t, 100.0, output.Match.MatchPercentage)
	assert.Equal(t, matching.QualityExcellent, output.Match.MatchQuality)
	assert.True(t, output.Match.Eligible)
	assert.Empty(t, output.Match.UnmatchedCriteria)
}

func TestHandler_Execute_FetchBothFromDB(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	countries, _ := json.Marshal([]string{"United Kingdom"})
	fields, _ := json.Marshal([]string{"Engineering"})
	mock.ExpectQuery("SELECT id, user_id, full_name").
		WithArgs(int64(101)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "full_name", "date_of_birth", "nationality", "district", "province",
			"intended_level", "al_stream", "subject1", "grade1", "subject2", "grade2", "subject3", "grade3",
			"z_score", "english_test", "overall_score", "household_income",
			"disability", "sports", "leadership", "first_generation", "willing_to_return",
			"preferred_countries", "preferred_fields", "profile_completion_percentage",
		}).AddRow(int64(101), int64(11), "Nimal Perera", time.Date(2003, 3, 15, 0, 0, 0, 0, time.UTC), "Sri Lankan", "Colombo", "Western",
			"UNDERGRADUATE", "SCIENCE", "Physics", "A", "Chemistry", "B", "Maths", "B",
			1.5, "IELTS", "6.5", "Below LKR 30,000",
			"No", "Yes", "Yes", "Yes", "Yes",
			countries, fields, 95))

	mock.ExpectQuery("SELECT id, institution_id, title").
		WithArgs(int64(201)).
		WillReturnRows(scholarshipRow(201))

	handler := newTestHandler(t, db)

	output, err := handler.Execute(context.Background(), &Input{StudentID: 101, ScholarshipID: 201})

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, "Commonwealth Shared Scholarship", output.ScholarshipTitle)
	assert.Equal(t, "Fully Funded", output.AmountDisplay)
	assert.Equal(t, "2026-01-31", output.DeadlineDisplay)
	assert.True(t, output.Match.Eligible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ProfileNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, full_name").
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	handler := newTestHandler(t, db)

	output, err := handler.Execute(context.Background(), &Input{StudentID: 999, ScholarshipID: 201})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, asStandardError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ScholarshipNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, institution_id, title").
		WithArgs(int64(888)).
		WillReturnError(sql.ErrNoRows)

	handler := newTestHandler(t, db)

	output, err := handler.Execute(context.Background(), &Input{
		StudentID:      101,
		ScholarshipID:  888,
		StudentProfile: createTestProfile(),
	})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.Equal(t, apperrors.ErrCodeScholarshipNotFound, asStandardError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Explainability Tests
// ==========================

func TestHandler_Execute_IneligibleBreakdown(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := newTestHandler(t, db)

	output, err := handler.Execute(context.Background(), &Input{
		StudentID:      101,
		ScholarshipID:  201,
		StudentProfile: createTestProfile(),
		Scholarship: &models.Scholarship{
			ID:             201,
			Title:          "Postgrad Only Award",
			EligibleLevels: []string{"POSTGRADUATE"},
		},
	})

	assert.NoError(t, err)
	assert.False(t, output.Match.Eligible)
	assert.Contains(t, output.Match.IneligibilityReason, "Education level")
	assert.Equal(t, 0, output.Match.Breakdown.EducationLevel.Earned)
	assert.Less(t, output.Match.MatchPercentage, 100.0)
}
