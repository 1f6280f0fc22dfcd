package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/propick/internal/brain"
	"github.com/wonny/propick/internal/upload"
	"github.com/wonny/propick/pkg/logger"
)

type fakeRanker struct {
	result *brain.RunResult
	err    error
}

func (f fakeRanker) RunAll(ctx context.Context) (*brain.RunResult, error) {
	return f.result, f.err
}

func TestDailyRankingJob(t *testing.T) {
	ok := fakeRanker{result: &brain.RunResult{
		RefDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Strategies: []brain.StrategyResult{
			{ID: 1, Rows: 10},
			{ID: 5, Skipped: true},
		},
		Upload: &upload.Summary{Uploaded: 1, Inserted: 1},
	}}
	job := NewDailyRankingJob(ok, logger.Nop())

	assert.Equal(t, "daily_ranking", job.Name())
	require.NoError(t, job.Run(context.Background()))

	failing := NewDailyRankingJob(fakeRanker{err: errors.New("krx down")}, logger.Nop())
	assert.ErrorContains(t, failing.Run(context.Background()), "krx down")
}

func TestDailyRankingJob_ScheduleIsWeekdaysAfterClose(t *testing.T) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(NewDailyRankingJob(fakeRanker{}, logger.Nop()).Schedule())
	require.NoError(t, err)

	friday := time.Date(2024, 4, 5, 17, 0, 0, 0, time.UTC)
	next := sched.Next(friday)
	assert.Equal(t, time.Date(2024, 4, 8, 16, 30, 0, 0, time.UTC), next) // 월요일
}
