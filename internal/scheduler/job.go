package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the 6-field cron expression (with seconds)
	// Example: "0 30 16 * * 1-5" (평일 16:30)
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory is the number of results kept per job
const maxHistory = 100

// JobHistory is a bounded log of a job's runs, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)

	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Counts returns the number of successful and failed runs kept
func (h *JobHistory) Counts() (succeeded, failed int) {
	for _, result := range h.Results {
		if result.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SuccessRate returns succeeded/total (0 when empty)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	succeeded, _ := h.Counts()
	return float64(succeeded) / float64(len(h.Results))
}

// lastOutcome returns the start time of the latest run split by outcome
func (h *JobHistory) lastOutcome() (last, lastSuccess, lastFailure *time.Time) {
	for i := len(h.Results) - 1; i >= 0; i-- {
		r := h.Results[i]
		t := r.StartTime
		if last == nil {
			last = &t
		}
		if r.Success && lastSuccess == nil {
			lastSuccess = &t
		}
		if !r.Success && lastFailure == nil {
			lastFailure = &t
		}
		if lastSuccess != nil && lastFailure != nil {
			break
		}
	}
	return last, lastSuccess, lastFailure
}
