// internal/workers/matching/match-scholarships/handler.go
package matchscholarships

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-scholarships"
)

const studentProfileQuery = `
	SELECT id, user_id, full_name, date_of_birth, nationality, district, province,
	       intended_level, al_stream, subject1, grade1, subject2, grade2, subject3, grade3,
	       z_score, english_test, overall_score, household_income,
	       disability, sports, leadership, first_generation, willing_to_return,
	       preferred_countries, preferred_fields, profile_completion_percentage
	FROM student_profiles WHERE id = $1`

const activeScholarshipsQuery = `
	SELECT id, institution_id, title, description, scholarship_type, coverage_percentage,
	       amount, currency, eligible_countries, eligible_fields, eligible_levels,
	       min_gpa, min_age, max_age, required_english_test, min_english_score,
	       min_al_passes, required_al_stream, min_z_score,
	       requires_financial_need, max_household_income,
	       sports_achievement_required, leadership_required, first_generation_priority,
	       disability_friendly, return_to_home_required,
	       application_deadline, is_featured
	FROM scholarships
	WHERE is_active = TRUE
	  AND (application_deadline IS NULL OR application_deadline >= NOW())
	ORDER BY is_featured DESC, id
	LIMIT $1`

const scholarshipsByIDsQuery = `
	SELECT id, institution_id, title, description, scholarship_type, coverage_percentage,
	       amount, currency, eligible_countries, eligible_fields, eligible_levels,
	       min_gpa, min_age, max_age, required_english_test, min_english_score,
	       min_al_passes, required_al_stream, min_z_score,
	       requires_financial_need, max_household_income,
	       sports_achievement_required, leadership_required, first_generation_priority,
	       disability_friendly, return_to_home_required,
	       application_deadline, is_featured
	FROM scholarships
	WHERE id = ANY($1)
	ORDER BY id`

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	engine     *matching.Engine
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, engine *matching.Engine, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
		engine:     engine,
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

	if err := validation.ValidateMatchRequest(job.Variables); err != nil {
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

	candidates := input.Scholarships
	if candidates == nil {
		var err error
		if len(input.ScholarshipIDs) > 0 {
			candidates, err = h.getScholarshipsByIDs(ctx, input.ScholarshipIDs)
		} else {
			candidates, err = h.getActiveScholarships(ctx)
		}
		if err != nil {
			return nil, err
		}
	}
	candidates = filterCandidates(candidates, input)

	resp, err := h.engine.MatchAll(ctx, profile, candidates, matching.Request{
		MinimumMatchPercentage: input.MinimumMatchPercentage,
		Limit:                  input.Limit,
		SortBy:                 matching.ParseSortMode(input.SortBy),
	})
	if err != nil {
		return nil, err
	}

	metrics.ScholarshipsScored.Add(float64(resp.TotalScholarshipsAnalyzed))
	for _, m := range resp.Scholarships {
		metrics.MatchPercentage.Observe(m.MatchPercentage)
		metrics.MatchQuality.WithLabelValues(string(m.MatchQuality)).Inc()
	}

	h.logger.Info("matching completed", map[string]interface{}{
		"correlationId": correlationID,
		"studentId":     profile.ID,
		"analyzed":      resp.TotalScholarshipsAnalyzed,
		"matchesFound":  resp.MatchesFound,
		"excellent":     resp.ExcellentMatches,
	})

	return &Output{
		CorrelationID: correlationID,
		Response:      resp,
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

func (h *Handler) getActiveScholarships(ctx context.Context) ([]*models.Scholarship, error) {
	rows, err := h.db.QueryContext(ctx, activeScholarshipsQuery, h.config.MaxCandidates)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError("active_scholarships")
		}
		return nil, apperrors.NewQueryExecutionFailedError("active_scholarships", err)
	}
	defer rows.Close()

	var scholarships []*models.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("active_scholarships", err)
		}
		scholarships = append(scholarships, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("active_scholarships", err)
	}

	return scholarships, nil
}

func (h *Handler) getScholarshipsByIDs(ctx context.Context, ids []int64) ([]*models.Scholarship, error) {
	rows, err := h.db.QueryContext(ctx, scholarshipsByIDsQuery, pq.Array(ids))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError("scholarships_by_ids")
		}
		return nil, apperrors.NewQueryExecutionFailedError("scholarships_by_ids", err)
	}
	defer rows.Close()

	var scholarships []*models.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scholarships_by_ids", err)
		}
		scholarships = append(scholarships, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("scholarships_by_ids", err)
	}

	return scholarships, nil
}

// filterCandidates applies the optional level/country/type pre-filters.
// Scholarships with no restriction on a filtered dimension pass through.
func filterCandidates(in []*models.Scholarship, input *Input) []*models.Scholarship {
	if input.EducationLevel == "" && input.Country == "" && input.ScholarshipType == "" {
		return in
	}

	out := make([]*models.Scholarship, 0, len(in))
	for _, s := range in {
		if input.EducationLevel != "" && len(s.EligibleLevels) > 0 && !containsFold(s.EligibleLevels, input.EducationLevel) {
			continue
		}
		if input.Country != "" && len(s.EligibleCountries) > 0 && !containsFold(s.EligibleCountries, input.Country) {
			continue
		}
		if input.ScholarshipType != "" && s.ScholarshipType != "" && !strings.EqualFold(s.ScholarshipType, input.ScholarshipType) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func scanScholarship(rows *sql.Rows) (*models.Scholarship, error) {
	var s models.Scholarship
	var coverage, minAge, maxAge, minALPasses sql.NullInt64
	var amount, minGPA, minEnglish, minZScore sql.NullFloat64
	var deadline sql.NullTime
	var countries, fields, levels []byte

	err := rows.Scan(&s.ID, &s.InstitutionID, &s.Title, &s.Description, &s.ScholarshipType, &coverage,
		&amount, &s.Currency, &countries, &fields, &levels,
		&minGPA, &minAge, &maxAge, &s.RequiredEnglishTest, &minEnglish,
		&minALPasses, &s.RequiredALStream, &minZScore,
		&s.RequiresFinancialNeed, &s.MaxHouseholdIncome,
		&s.SportsAchievementRequired, &s.LeadershipRequired, &s.FirstGenerationPriority,
		&s.DisabilityFriendly, &s.ReturnToHomeRequired,
		&deadline, &s.IsFeatured)
	if err != nil {
		return nil, err
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
		Message:   "Scholarship matching failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
