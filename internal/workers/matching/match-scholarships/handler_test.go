// internal/workers/matching/match-scholarships/handler_test.go
package matchscholarships

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
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		CacheTTL:      10 * time.Minute,
		Timeout:       30 * time.Second,
		MaxCandidates: 500,
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

func newTestEngine(t *testing.T) *matching.Engine {
	engine, err := matching.NewEngine(matching.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func createTestProfile() *models.StudentProfile {
	dob := time.Date(2003, 3, 15, 0, 0, 0, 0, time.UTC)
	zScore := 1.5
	return &models.StudentProfile{
		ID:                          101,
		UserID:                      11,
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
		PreferredFields:             []string{"Engineering", "Computer Science"},
		ProfileCompletionPercentage: 95,
	}
}

func createOpenScholarship(id int64) *models.Scholarship {
	return &models.Scholarship{
		ID:            id,
		InstitutionID: 301,
		Title:         "Open Merit Award",
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

var profileColumns = []string{
	"id", "user_id", "full_name", "date_of_birth", "nationality", "district", "province",
	"intended_level", "al_stream", "subject1", "grade1", "subject2", "grade2", "subject3", "grade3",
	"z_score", "english_test", "overall_score", "household_income",
	"disability", "sports", "leadership", "first_generation", "willing_to_return",
	"preferred_countries", "preferred_fields", "profile_completion_percentage",
}

func profileRow() *sqlmock.Rows {
	countries, _ := json.Marshal([]string{"United Kingdom"})
	fields, _ := json.Marshal([]string{"Engineering"})
	return sqlmock.NewRows(profileColumns).
		AddRow(int64(101), int64(11), "Nimal Perera", time.Date(2003, 3, 15, 0, 0, 0, 0, time.UTC), "Sri Lankan", "Colombo", "Western",
			"UNDERGRADUATE", "SCIENCE", "Physics", "A", "Chemistry", "B", "Maths", "B",
			1.5, "IELTS", "6.5", "Below LKR 30,000",
			"No", "Yes", "Yes", "Yes", "Yes",
			countries, fields, 95)
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

func scholarshipRows(ids ...int64) *sqlmock.Rows {
	emptyList, _ := json.Marshal([]string{})
	rows := sqlmock.NewRows(scholarshipColumns)
	for _, id := range ids {
		rows.AddRow(id, int64(301), "Open Merit Award", "", "FULL", nil,
			nil, "", emptyList, emptyList, emptyList,
			nil, nil, nil, "", nil,
			nil, "", nil,
			false, "",
			false, false, false,
			false, false,
			nil, false)
	}
	return rows
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_WithInlineData(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	input := &Input{
		StudentID:      101,
		StudentProfile: createTestProfile(),
		Scholarships:   []*models.Scholarship{createOpenScholarship(201), createOpenScholarship(202)},
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.NotEmpty(t, output.CorrelationID)
	assert.Equal(t, int64(101), output.StudentID)
	assert.Equal(t, 2, output.TotalScholarshipsAnalyzed)
	assert.Equal(t, 2, output.MatchesFound)
	assert.Equal(t, 2, output.ExcellentMatches)
	for _, m := range output.Scholarships {
		assert.Equal(t, 100.0, m.MatchPercentage)
		assert.True(t, m.IsEligible)
	}
}

func TestHandler_Execute_FetchProfileFromDB(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, full_name").
		WithArgs(int64(101)).
		WillReturnRows(profileRow())

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	input := &Input{
		StudentID:    101,
		Scholarships: []*models.Scholarship{createOpenScholarship(201)},
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, "Nimal Perera", output.StudentName)
	assert.Equal(t, 1, output.MatchesFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ProfileNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, full_name").
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{StudentID: 999, Scholarships: []*models.Scholarship{}})

	assert.Error(t, err)
	assert.Nil(t, output)
	stdErr := asStandardError(err)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_FetchScholarshipsFromDB(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, institution_id, title").
		WithArgs(500).
		WillReturnRows(scholarshipRows(201, 202, 203))

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	input := &Input{
		StudentID:      101,
		StudentProfile: createTestProfile(),
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, 3, output.TotalScholarshipsAnalyzed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_FetchByScholarshipIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, institution_id, title").
		WithArgs(pq.Array([]int64{11, 12})).
		WillReturnRows(scholarshipRows(11, 12))

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	input := &Input{
		StudentID:      101,
		StudentProfile: createTestProfile(),
		ScholarshipIDs: []int64{11, 12},
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 2, output.TotalScholarshipsAnalyzed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ProfileServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cached, err := json.Marshal(createTestProfile())
	require.NoError(t, err)
	require.NoError(t, mr.Set("student:profile:101", string(cached)))

	// No query expectations: a cache hit must not touch the database.
	db, mock := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, redisClient, newTestEngine(t), newTestLogger(t))

	input := &Input{
		StudentID:    101,
		Scholarships: []*models.Scholarship{createOpenScholarship(201)},
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, "Nimal Perera", output.StudentName)
	assert.Equal(t, 1, output.MatchesFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CandidateFilters(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	ugOnly := createOpenScholarship(201)
	ugOnly.EligibleLevels = []string{"UNDERGRADUATE"}
	pgOnly := createOpenScholarship(202)
	pgOnly.EligibleLevels = []string{"POSTGRADUATE"}
	unrestricted := createOpenScholarship(203)

	input := &Input{
		StudentID:      101,
		StudentProfile: createTestProfile(),
		Scholarships:   []*models.Scholarship{ugOnly, pgOnly, unrestricted},
		EducationLevel: "UNDERGRADUATE",
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	// The postgraduate-only award is filtered out before scoring;
	// the unrestricted one passes through.
	assert.Equal(t, 2, output.TotalScholarshipsAnalyzed)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, institution_id, title").
		WithArgs(500).
		WillReturnError(sql.ErrConnDone)

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		StudentID:      101,
		StudentProfile: createTestProfile(),
	})

	assert.Error(t, err)
	assert.Nil(t, output)
	stdErr := asStandardError(err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Request Parameter Tests
// ==========================

func TestHandler_Execute_FiltersAndLimits(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	candidates := make([]*models.Scholarship, 0, 10)
	for i := int64(1); i <= 10; i++ {
		candidates = append(candidates, createOpenScholarship(200+i))
	}

	input := &Input{
		StudentID:      101,
		StudentProfile: createTestProfile(),
		Scholarships:   candidates,
		Limit:          4,
		SortBy:         "MATCH_DESC",
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 10, output.MatchesFound)
	assert.Len(t, output.Scholarships, 4)
}

func TestHandler_Execute_MinimumPercentageExcludesAll(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, setupMockRedis(), newTestEngine(t), newTestLogger(t))

	// A student with nothing on record scores below 100 against an open award.
	input := &Input{
		StudentID:              102,
		StudentProfile:         &models.StudentProfile{ID: 102},
		Scholarships:           []*models.Scholarship{createOpenScholarship(201)},
		MinimumMatchPercentage: 100,
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 1, output.TotalScholarshipsAnalyzed)
	assert.Equal(t, 0, output.MatchesFound)
	assert.Empty(t, output.Scholarships)
}

// ==========================
// Error Mapping Tests
// ==========================

func TestAsStandardError(t *testing.T) {
	stdErr := asStandardError(apperrors.NewProfileNotFoundError(7))
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)

	wrapped := asStandardError(context.DeadlineExceeded)
	assert.Equal(t, apperrors.ErrorCode("MATCHING_FAILED"), wrapped.Code)
	assert.False(t, wrapped.Retryable)
}
