package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"bicycle_rental/internal/app"
	"bicycle_rental/internal/domain/fee"
	"bicycle_rental/internal/domain/telegram"
	itelegram "bicycle_rental/internal/infra/telegram"
)

// OverdueReporter lists the rentals past their scheduled return date.
type OverdueReporter interface {
	Report(ctx context.Context) ([]app.OverdueRental, error)
}

// OverdueScheduler runs the overdue report on a cron spec and forwards it to
// staff when a bot client is configured.
type OverdueScheduler struct {
	cronEngine  *cron.Cron
	reporter    OverdueReporter
	notifier    telegram.Client // nil when the bot is disabled
	staffChatID int64
	cronSpec    string
	logger      *logrus.Entry
}

func NewOverdueScheduler(
	reporter OverdueReporter,
	notifier telegram.Client,
	staffChatID int64,
	cronSpec string, // e.g., "0 9 * * *" (9 AM daily)
	logger *logrus.Entry,
) *OverdueScheduler {
	return &OverdueScheduler{
		cronEngine:  cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		reporter:    reporter,
		notifier:    notifier,
		staffChatID: staffChatID,
		cronSpec:    cronSpec,
		logger:      logger.WithField("component", "overdue_scheduler"),
	}
}

func (s *OverdueScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting overdue report scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for overdue report")
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.logger.WithError(err).Error("Overdue report job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add overdue report cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Overdue report scheduler started")
	return nil
}

// RunOnce builds the report, logs every overdue rental and notifies staff when
// there is anything to report.
func (s *OverdueScheduler) RunOnce(ctx context.Context) error {
	overdue, err := s.reporter.Report(ctx)
	if err != nil {
		return err
	}

	for _, o := range overdue {
		s.logger.WithFields(logrus.Fields{
			"bicycle_id":   o.BicycleID,
			"member_id":    o.MemberID,
			"due":          o.ScheduledFor.String(),
			"overdue_days": o.OverdueDays,
			"accrued_fee":  fee.Display(o.AccruedFee),
		}).Warn("Rental overdue")
	}
	s.logger.WithField("overdue_count", len(overdue)).Info("Overdue report built")

	if s.notifier == nil || len(overdue) == 0 {
		return nil
	}
	if err := s.notifier.SendMessage(s.staffChatID, itelegram.FormatOverdueReport(overdue), nil); err != nil {
		return fmt.Errorf("error notifying staff: %w", err)
	}
	return nil
}

func (s *OverdueScheduler) Stop() {
	s.logger.Info("Stopping overdue report scheduler")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Overdue report scheduler gracefully stopped")
}
