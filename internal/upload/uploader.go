package upload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/propick/internal/contracts"
	"github.com/wonny/propick/internal/export"
	"github.com/wonny/propick/internal/selection"
	"github.com/wonny/propick/pkg/logger"
)

// ObjectStore holds the uploaded CSV files
type ObjectStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Upload(ctx context.Context, path string, data []byte) error
}

// RankingIndex is the table uploaded rankings are inserted into
type RankingIndex interface {
	HashExists(ctx context.Context, fileHash string) (bool, error)
	RankingExists(ctx context.Context, strategy int, refDate time.Time) (bool, error)
	SaveRanking(ctx context.Context, run *contracts.RankingRun) error
}

// Summary counts what one upload pass did
type Summary struct {
	Found    int `json:"found"`
	Uploaded int `json:"uploaded"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Uploader publishes today's strategy CSVs
// ⭐ SSOT: 결과 업로드는 여기서만
type Uploader struct {
	dir     string
	objects ObjectStore
	index   RankingIndex
	logger  *logger.Logger
	now     func() time.Time
}

// NewUploader creates an uploader for the CSV files in dir
func NewUploader(dir string, objects ObjectStore, index RankingIndex, log *logger.Logger) *Uploader {
	return &Uploader{
		dir:     dir,
		objects: objects,
		index:   index,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock replaces the clock (tests)
func (u *Uploader) WithClock(now func() time.Time) *Uploader {
	u.now = now
	return u
}

// StoragePath is "<YYYYMMDD>/strategy_<n>.csv"
func StoragePath(day time.Time, strategy int) string {
	return fmt.Sprintf("%s/strategy_%d.csv", day.Format("20060102"), strategy)
}

// Run uploads every ranking file written today. A failing file is logged and
// skipped; only listing the directory is fatal.
func (u *Uploader) Run(ctx context.Context) (*Summary, error) {
	now := u.now()
	summary := &Summary{}

	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		u.logger.WithField("weekday", wd.String()).Info("Weekend; skipping upload")
		return summary, nil
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	files, err := export.ListFiles(u.dir, day)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		u.logger.WithFields(map[string]interface{}{
			"dir":  u.dir,
			"date": day.Format("20060102"),
		}).Warn("No ranking file generated today")
		return summary, nil
	}

	summary.Found = len(files)
	u.logger.WithField("files", len(files)).Info("Uploading ranking files")

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		u.uploadFile(ctx, path, day, summary)
	}

	u.logger.WithFields(map[string]interface{}{
		"found":    summary.Found,
		"uploaded": summary.Uploaded,
		"inserted": summary.Inserted,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("Upload finished")

	return summary, nil
}

func (u *Uploader) uploadFile(ctx context.Context, path string, day time.Time, summary *Summary) {
	log := u.logger.WithField("file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Error("Failed to read ranking file")
		summary.Failed++
		return
	}
	file, err := export.ReadRankingCSV(path)
	if err != nil {
		log.WithError(err).Error("Failed to parse ranking file")
		summary.Failed++
		return
	}

	fileHash := export.MD5Hex(data)
	storagePath := StoragePath(day, file.Strategy)

	if u.check(log, "hash", func() (bool, error) { return u.index.HashExists(ctx, fileHash) }) {
		log.WithField("hash", fileHash).Info("Same file already uploaded; skipping")
		summary.Skipped++
		return
	}

	storageExists := u.check(log, "storage", func() (bool, error) { return u.objects.Exists(ctx, storagePath) })
	dbExists := u.check(log, "rows", func() (bool, error) { return u.index.RankingExists(ctx, file.Strategy, day) })

	if storageExists && dbExists {
		log.Info("Already uploaded; skipping")
		summary.Skipped++
		return
	}

	if !storageExists {
		if err := u.objects.Upload(ctx, storagePath, data); err != nil {
			log.WithError(err).WithField("storage_path", storagePath).Error("Storage upload failed")
			summary.Failed++
			return
		}
		summary.Uploaded++
		log.WithField("storage_path", storagePath).Info("Storage upload succeeded")
	}

	if dbExists {
		return
	}

	run := &contracts.RankingRun{
		Strategy:    file.Strategy,
		RefDate:     day,
		Rows:        file.Rows,
		StoragePath: storagePath,
		FileHash:    fileHash,
	}
	if strategy, err := selection.Lookup(file.Strategy); err == nil {
		run.StrategyName = strategy.Title
	}

	if err := u.index.SaveRanking(ctx, run); err != nil {
		log.WithError(err).Error("Ranking insert failed")
		summary.Failed++
		return
	}
	summary.Inserted++
	log.WithField("rows", len(run.Rows)).Info("Ranking rows inserted")
}

// check treats a failed existence query as "absent"
func (u *Uploader) check(log *logger.Logger, what string, fn func() (bool, error)) bool {
	exists, err := fn()
	if err != nil {
		log.WithError(err).WithField("check", what).Warn("Existence check failed; assuming absent")
		return false
	}
	return exists
}
