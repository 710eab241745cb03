package db

import (
	"time"

	"uptimeguard/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cleaner periodically deletes history rows older than a retention
// window. It replaces the teacher's tiered hourly/daily rollup
// aggregation: this project reports only simple uptime percentages
// derived on the fly from raw history, so there is nothing to roll up
// into, just a cutoff to enforce.
type Cleaner struct {
	repo          Repository
	historyDays   int
	intervalHours int
	cron          *cron.Cron
}

func NewCleaner(repo Repository, historyDays, intervalHours int) *Cleaner {
	return &Cleaner{
		repo:          repo,
		historyDays:   historyDays,
		intervalHours: intervalHours,
		cron:          cron.New(),
	}
}

// Start schedules the cleaner to run every intervalHours and performs
// one immediate pass so a freshly started process doesn't wait a full
// interval before trimming old data.
func (c *Cleaner) Start() {
	spec := "@every " + time.Duration(c.intervalHours*int(time.Hour)).String()
	_, err := c.cron.AddFunc(spec, c.run)
	if err != nil {
		logger.Error("cleaner: failed to schedule", zap.Error(err))
		return
	}
	c.cron.Start()
	go c.run()
}

func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *Cleaner) run() {
	cutoff := time.Now().Add(-time.Duration(c.historyDays) * 24 * time.Hour)
	n, err := c.repo.DeleteHistoryOlderThan(cutoff)
	if err != nil {
		logger.Error("cleaner: delete failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("cleaner: purged old history", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	}
}
