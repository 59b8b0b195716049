package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/pkg/logger"
	"github.com/pirouette/studio/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 90
	defaultSessionSpec        = "@hourly"
	defaultAuditSpec          = "@daily"

	jobSessions = "sessions"
	jobAudit    = "audit"

	jobTimeout = 5 * time.Minute
)

// SessionCleaner sweeps expired sessions and purges stale ones.
type SessionCleaner interface {
	Cleanup(ctx context.Context, now time.Time) (iauth.CleanupStats, error)
}

// AuditPruner removes audit rows created before cutoff.
type AuditPruner interface {
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner coordinates background maintenance: session sweeps and audit
// retention enforcement.
type Cleaner struct {
	sessions  SessionCleaner
	audit     AuditPruner
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	sessionSchedule string
	auditSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the corresponding job.
func NewCleaner(sessions SessionCleaner, audit AuditPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:        sessions,
		audit:           audit,
		now:             time.Now,
		retention:       defaultAuditRetentionDays,
		sessionSchedule: defaultSessionSpec,
		auditSchedule:   defaultAuditSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) error
}

// jobs lists the enabled jobs in execution order.
func (c *Cleaner) jobs() []job {
	var jobs []job
	if c.sessions != nil {
		jobs = append(jobs, job{name: jobSessions, spec: c.sessionSchedule, run: c.cleanSessions})
	}
	if c.audit != nil {
		jobs = append(jobs, job{name: jobAudit, spec: c.auditSchedule, run: c.pruneAudit})
	}
	return jobs
}

// Start schedules every enabled job and launches the scheduler. It is a no-op
// when no job is enabled.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return nil
	}

	for _, j := range jobs {
		if _, err := c.cron.AddFunc(j.spec, func() { c.runJob(context.Background(), j) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s job %q: %w", j.name, j.spec, err)
		}
	}
	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs complete.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce executes every enabled job sequentially and aggregates failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs() {
		errs = multierr.Append(errs, c.runJob(ctx, j))
	}
	return errs
}

func (c *Cleaner) runJob(ctx context.Context, j job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	err := j.run(ctx)
	result := "success"
	if err != nil {
		result = "error"
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
	}
	metrics.MaintenanceRuns.WithLabelValues(j.name, result).Inc()
	return err
}

func (c *Cleaner) cleanSessions(ctx context.Context) error {
	stats, err := c.sessions.Cleanup(ctx, c.now().UTC())
	if err != nil {
		return err
	}
	c.log.Debug("session cleanup finished",
		zap.Int64("expired", stats.Expired),
		zap.Int64("deleted", stats.Deleted),
	)
	return nil
}

func (c *Cleaner) pruneAudit(ctx context.Context) error {
	cutoff := c.now().UTC().AddDate(0, 0, -c.retention)
	removed, err := c.audit.CleanupOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	c.log.Debug("audit cleanup finished", zap.Int64("removed", removed))
	return nil
}
