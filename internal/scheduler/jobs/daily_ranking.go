package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/propick/internal/brain"
	"github.com/wonny/propick/pkg/logger"
)

// Ranker runs every strategy and uploads the results
type Ranker interface {
	RunAll(ctx context.Context) (*brain.RunResult, error)
}

// DailyRankingJob generates and publishes the strategy rankings after the close
// ⭐ SSOT: 일일 랭킹 스케줄은 이 Job에서만
type DailyRankingJob struct {
	ranker Ranker
	logger *logger.Logger
}

// NewDailyRankingJob creates a new daily ranking job
func NewDailyRankingJob(ranker Ranker, log *logger.Logger) *DailyRankingJob {
	return &DailyRankingJob{ranker: ranker, logger: log}
}

// Name returns the job name
func (j *DailyRankingJob) Name() string {
	return "daily_ranking"
}

// Schedule returns the cron schedule (평일 16:30, 장 마감 후)
func (j *DailyRankingJob) Schedule() string {
	return "0 30 16 * * 1-5"
}

// Run executes RunAll (rank → CSV → save → upload)
func (j *DailyRankingJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled ranking run")

	result, err := j.ranker.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("ranking run: %w", err)
	}

	written, skipped := 0, 0
	for _, sr := range result.Strategies {
		if sr.Skipped {
			skipped++
		} else {
			written++
		}
	}

	fields := map[string]interface{}{
		"ref_date": result.RefDate.Format("20060102"),
		"written":  written,
		"skipped":  skipped,
	}
	if result.Upload != nil {
		fields["uploaded"] = result.Upload.Uploaded
		fields["inserted"] = result.Upload.Inserted
	}
	j.logger.WithFields(fields).Info("Scheduled ranking run completed")

	return nil
}
