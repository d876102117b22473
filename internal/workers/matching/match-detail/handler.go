// internal/workers/matching/match-detail/handler.go
package matchdetail

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "scholarfinder-workers/internal/common/errors"
	"scholarfinder-workers/internal/common/logger"
	"scholarfinder-workers/internal/common/metrics"
	"scholarfinder-workers/internal/common/validation"
	"scholarfinder-workers/internal/matching"
	"scholarfinder-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-detail"
)

const studentProfileQuery = `
	SELECT id, user_id, full_name, date_of_birth, nationality, district, province,
	       intended_level, al_stream, subject1, grade1, subject2, grade2, subject3, grade3,
	       z_score, english_test, overall_score, household_income,
	       disability, sports, leadership, first_generation, willing_to_return,
	       preferred_countries, preferred_fields, profile_completion_percentage
	FROM student_profiles WHERE id = $1`

const scholarshipByIDQuery = `
	SELECT id, institution_id, title, description, scholarship_type, coverage_percentage,
	       amount, currency, eligible_countries, eligible_fields, eligible_levels,
	       min_gpa, min_age, max_age, required_english_test, min_english_score,
	       min_al_passes, required_al_stream, min_z_score,
	       requires_financial_need, max_household_income,
	       sports_achievement_required, leadership_required, first_generation_priority,
	       disability_friendly, return_to_home_required,
	       application_deadline, is_featured
	FROM scholarships WHERE id = $1`

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	scoring    matching.Config
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, scoring matching.Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
		scoring:    scoring,
		errHandler: apperrors.NewErrorHandler(scoped),
		logger:     scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := validation.ValidateMatchDetailRequest(job.Variables); err != nil {
		h.failJob(client, job, apperrors.NewMatchRequestInvalidError(err.Error()))
		return nil
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewParseError("job variables", err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, asStandardError(err))
		return nil
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	correlationID := uuid.NewString()

	profile := input.StudentProfile
	if profile == nil {
		var err error
		profile, err = h.getStudentProfile(ctx, input.StudentID)
		if err != nil {
			return nil, err
		}
	}

	scholarship := input.Scholarship
	if scholarship == nil {
		var err error
		scholarship, err = h.getScholarship(ctx, input.ScholarshipID)
		if err != nil {
			return nil, err
		}
	}

	result := matching.Calculate(h.scoring, profile, scholarship, time.Now())

	metrics.ScholarshipsScored.Inc()
	metrics.MatchPercentage.Observe(result.MatchPercentage)
	metrics.MatchQuality.WithLabelValues(string(result.MatchQuality)).Inc()

	h.logger.Info("match detail computed", map[string]interface{}{
		"correlationId":   correlationID,
		"studentId":       profile.ID,
		"scholarshipId":   scholarship.ID,
		"matchPercentage": result.MatchPercentage,
		"eligible":        result.Eligible,
	})

	return &Output{
		CorrelationID:    correlationID,
		ScholarshipTitle: scholarship.Title,
		AmountDisplay:    scholarship.AmountDisplay(),
		DeadlineDisplay:  scholarship.DeadlineDisplay(),
		Match:            result,
	}, nil
}

func (h *Handler) getStudentProfile(ctx context.Context, studentID int64) (*models.StudentProfile, error) {
	cacheKey := fmt.Sprintf("student:profile:%d", studentID)
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var profile models.StudentProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &profile, nil
		}
	}

	row := h.db.QueryRowContext(ctx, studentProfileQuery, studentID)

	var p models.StudentProfile
	var dob sql.NullTime
	var zScore sql.NullFloat64
	var countries, fields []byte
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &dob, &p.Nationality, &p.District, &p.Province,
		&p.IntendedLevel, &p.ALStream, &p.Subject1, &p.Grade1, &p.Subject2, &p.Grade2, &p.Subject3, &p.Grade3,
		&zScore, &p.EnglishTest, &p.OverallScore, &p.HouseholdIncome,
		&p.Disability, &p.Sports, &p.Leadership, &p.FirstGeneration, &p.WillingToReturn,
		&countries, &fields, &p.ProfileCompletionPercentage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewProfileNotFoundError(studentID)
		}
		return nil, apperrors.NewQueryExecutionFailedError("student_profile_by_id", err)
	}

	if dob.Valid {
		t := dob.Time
		p.DateOfBirth = &t
	}
	if zScore.Valid {
		v := zScore.Float64
		p.ZScore = &v
	}
	if err := json.Unmarshal(countries, &p.PreferredCountries); err != nil {
		p.PreferredCountries = []string{}
	}
	if err := json.Unmarshal(fields, &p.PreferredFields); err != nil {
		p.PreferredFields = []string{}
	}

	data, _ := json.Marshal(p)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return &p, nil
}

func (h *Handler) getScholarship(ctx context.Context, scholarshipID int64) (*models.Scholarship, error) {
	cacheKey := fmt.Sprintf("scholarship:%d", scholarshipID)
	if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
		var scholarship models.Scholarship
		if err := json.Unmarshal([]byte(val), &scholarship); err == nil {
			return &scholarship, nil
		}
	}

	row := h.db.QueryRowContext(ctx, scholarshipByIDQuery, scholarshipID)

	var s models.Scholarship
	var coverage, minAge, maxAge, minALPasses sql.NullInt64
	var amount, minGPA, minEnglish, minZScore sql.NullFloat64
	var deadline sql.NullTime
	var countries, fields, levels []byte

	err := row.Scan(&s.ID, &s.InstitutionID, &s.Title, &s.Description, &s.ScholarshipType, &coverage,
		&amount, &s.Currency, &countries, &fields, &levels,
		&minGPA, &minAge, &maxAge, &s.RequiredEnglishTest, &minEnglish,
		&minALPasses, &s.RequiredALStream, &minZScore,
		&s.RequiresFinancialNeed, &s.MaxHouseholdIncome,
		&s.SportsAchievementRequired, &s.LeadershipRequired, &s.FirstGenerationPriority,
		&s.DisabilityFriendly, &s.ReturnToHomeRequired,
		&deadline, &s.IsFeatured)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewScholarshipNotFoundError(scholarshipID)
		}
		return nil, apperrors.NewQueryExecutionFailedError("scholarship_by_id", err)
	}

	if coverage.Valid {
		v := int(coverage.Int64)
		s.CoveragePercentage = &v
	}
	if amount.Valid {
		v := amount.Float64
		s.Amount = &v
	}
	if minGPA.Valid {
		v := minGPA.Float64
		s.MinGPA = &v
	}
	if minAge.Valid {
		v := int(minAge.Int64)
		s.MinAge = &v
	}
	if maxAge.Valid {
		v := int(maxAge.Int64)
		s.MaxAge = &v
	}
	if minEnglish.Valid {
		v := minEnglish.Float64
		s.MinEnglishScore = &v
	}
	if minALPasses.Valid {
		v := int(minALPasses.Int64)
		s.MinALPasses = &v
	}
	if minZScore.Valid {
		v := minZScore.Float64
		s.MinZScore = &v
	}
	if deadline.Valid {
		t := deadline.Time
		s.ApplicationDeadline = &t
	}
	if err := json.Unmarshal(countries, &s.EligibleCountries); err != nil {
		s.EligibleCountries = []string{}
	}
	if err := json.Unmarshal(fields, &s.EligibleFields); err != nil {
		s.EligibleFields = []string{}
	}
	if err := json.Unmarshal(levels, &s.EligibleLevels); err != nil {
		s.EligibleLevels = []string{}
	}

	data, _ := json.Marshal(s)
	h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)

	return &s, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, stdErr *apperrors.StandardError) {
	bpmnErr := apperrors.ConvertToBPMNError(stdErr)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()

	// Retryable errors are failed with remaining retries; business errors
	// are thrown as BPMN errors for the process to route.
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func asStandardError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &apperrors.StandardError{
		Code:      "MATCHING_FAILED",
		Message:   "Match detail computation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
