// internal/matching/aggregator.go
package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scholarfinder-workers/internal/common/logger"
	"scholarfinder-workers/internal/models"
)

const defaultMaxWorkers = 8

// Engine scores a student against a candidate scholarship list and assembles
// the ranked, filtered response.
type Engine struct {
	cfg        Config
	log        logger.Logger
	maxWorkers int
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{cfg: cfg, log: log, maxWorkers: defaultMaxWorkers}, nil
}

// MatchAll evaluates every candidate scholarship for the student, then
// filters, tallies, sorts and truncates per the request. Candidates are
// scored concurrently; the output is deterministic for a given input order
// because results are written back by index before any aggregation happens.
func (e *Engine) MatchAll(ctx context.Context, student *models.StudentProfile, candidates []*models.Scholarship, req Request) (*Response, error) {
	req.applyDefaults()
	now := time.Now()

	results := make([]Result, len(candidates))
	sem := make(chan struct{}, e.maxWorkers)
	var wg sync.WaitGroup

	for i, sch := range candidates {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, fmt.Errorf("matching cancelled: %w", ctx.Err())
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, sch *models.Scholarship) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = Calculate(e.cfg, student, sch, now)
		}(i, sch)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("matching cancelled: %w", err)
	}

	resp := &Response{
		StudentID:                 student.ID,
		StudentName:               student.FullName,
		TotalScholarshipsAnalyzed: len(candidates),
		Scholarships:              []ScholarshipMatch{},
	}

	minimum := req.MinimumMatchPercentage
	matches := make([]ScholarshipMatch, 0, len(candidates))
	for i := range results {
		r := &results[i]
		if int(r.MatchPercentage) < minimum {
			continue
		}
		switch r.MatchQuality {
		case QualityExcellent:
			resp.ExcellentMatches++
		case QualityGood:
			resp.GoodMatches++
		case QualityFair:
			resp.FairMatches++
		}
		matches = append(matches, mapToSummary(candidates[i], r))
	}
	resp.MatchesFound = len(matches)

	sortMatches(matches, req.SortBy)
	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}
	resp.Scholarships = matches
	resp.ImprovementSuggestions = buildSuggestions(student)

	e.log.Debug("matching run complete", map[string]interface{}{
		"student_id": student.ID,
		"analyzed":   resp.TotalScholarshipsAnalyzed,
		"matches":    resp.MatchesFound,
	})

	return resp, nil
}

// sortMatches orders in place. In both deadline modes scholarships without a
// deadline end up last.
func sortMatches(matches []ScholarshipMatch, mode SortMode) {
	switch mode {
	case SortMatchAsc:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].MatchPercentage < matches[j].MatchPercentage
		})
	case SortDeadlineAsc:
		sort.SliceStable(matches, func(i, j int) bool {
			return deadlineOrNever(matches[i].ApplicationDeadline).Before(deadlineOrNever(matches[j].ApplicationDeadline))
		})
	case SortDeadlineDesc:
		sort.SliceStable(matches, func(i, j int) bool {
			return deadlineOrEpoch(matches[j].ApplicationDeadline).Before(deadlineOrEpoch(matches[i].ApplicationDeadline))
		})
	default:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].MatchPercentage > matches[j].MatchPercentage
		})
	}
}

// deadlineOrNever substitutes a far-future sentinel for a missing deadline so
// nil sorts last in ascending order.
func deadlineOrNever(t *time.Time) time.Time {
	if t == nil {
		return time.Unix(1<<62-1, 0)
	}
	return *t
}

// deadlineOrEpoch substitutes the zero time so nil also sorts last in
// descending order.
func deadlineOrEpoch(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

const maxSuggestions = 5

// buildSuggestions derives generic profile advice from gaps in the student's
// record. At most five entries.
func buildSuggestions(student *models.StudentProfile) []string {
	suggestions := make([]string, 0, maxSuggestions)

	if student.EnglishTest == "" {
		suggestions = append(suggestions, "Take an English proficiency test (IELTS/TOEFL) to qualify for more international scholarships")
	}
	if student.ProfileCompletionPercentage < 80 {
		suggestions = append(suggestions, fmt.Sprintf("Complete your profile (%d%% remaining) to improve match accuracy",
			100-student.ProfileCompletionPercentage))
	}
	if len(student.PreferredFields) == 0 {
		suggestions = append(suggestions, "Add your preferred fields of study to find more relevant scholarships")
	}
	if student.HouseholdIncome == "" {
		suggestions = append(suggestions, "Add household income information to qualify for need-based scholarships")
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
