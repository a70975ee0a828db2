package stats

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"mail-routing-engine/internal/metrics"
	"mail-routing-engine/internal/model"
	"mail-routing-engine/internal/store"
)

// Refresher periodically recomputes the gauge metrics that cannot be
// maintained incrementally (config totals, email log counts by status).
type Refresher struct {
	configs  *store.ConfigStore
	audit    *store.AuditStore
	metrics  *metrics.Metrics
	interval time.Duration
	cron     *cron.Cron
}

// NewRefresher creates a refresher running every interval.
func NewRefresher(configs *store.ConfigStore, audit *store.AuditStore, m *metrics.Metrics, interval time.Duration) *Refresher {
	return &Refresher{
		configs:  configs,
		audit:    audit,
		metrics:  m,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start begins the periodic refresh and performs one refresh immediately
// so the gauges are populated before the first tick.
func (r *Refresher) Start() error {
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := r.cron.AddFunc(spec, r.Refresh); err != nil {
		return fmt.Errorf("failed to schedule stats refresh: %w", err)
	}
	r.cron.Start()
	r.Refresh()
	logrus.Infof("Stats refresher started (every %s)", r.interval)
	return nil
}

// Stop halts the periodic refresh and waits for a running refresh to
// finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	logrus.Info("Stats refresher stopped")
}

// Refresh recomputes all gauges once.
func (r *Refresher) Refresh() {
	if total, err := r.configs.Count(); err != nil {
		logrus.Warnf("Failed to count routing configs: %v", err)
	} else {
		r.metrics.TotalConfigs.Set(float64(total))
	}

	counts, err := r.audit.EmailLogStatusCounts()
	if err != nil {
		logrus.Warnf("Failed to count email logs: %v", err)
		return
	}
	for _, status := range []model.EmailLogStatus{
		model.EmailStatusReceived,
		model.EmailStatusProcessed,
		model.EmailStatusFailed,
	} {
		r.metrics.EmailLogs.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
