package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/parkpass/parking-pass-api/databases"
	"github.com/parkpass/parking-pass-api/models"
)

// ReminderMailer sends the stale-pending reminder email.
type ReminderMailer interface {
	SendPendingReminder(toEmail string, pending int, oldest models.Application)
}

// Scheduler runs the periodic background jobs. There is one job today: a
// daily reminder to the admin mailbox about applications stuck in pending.
// The job only reads records, it never mutates them.
type Scheduler struct {
	cron        *cron.Cron
	Apps        databases.ApplicationDatabase
	Mailer      ReminderMailer
	NotifyEmail string
	MaxAge      time.Duration
}

// NewScheduler creates a new scheduler instance
func NewScheduler(apps databases.ApplicationDatabase, mailer ReminderMailer, notifyEmail string, maxAge time.Duration) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		Apps:        apps,
		Mailer:      mailer,
		NotifyEmail: notifyEmail,
		MaxAge:      maxAge,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Remind admins of stale pending applications daily at 8 AM UTC
	_, err := s.cron.AddFunc("0 8 * * *", s.remindPendingApplications)
	if err != nil {
		zap.S().Errorw("failed to register pending reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("pending application reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("pending application reminder scheduler stopped")
}

// remindPendingApplications emails the admin mailbox when applications have
// been pending longer than MaxAge.
func (s *Scheduler) remindPendingApplications() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.MaxAge)
	stale, err := s.Apps.FindPendingOlderThan(ctx, cutoff)
	if err != nil {
		zap.S().Errorw("failed to find stale pending applications", "error", err)
		return
	}
	if len(stale) == 0 {
		zap.S().Debug("no stale pending applications")
		return
	}

	zap.S().Infow("stale pending applications found",
		"count", len(stale),
		"cutoff", cutoff,
	)
	if s.Mailer != nil && s.NotifyEmail != "" {
		s.Mailer.SendPendingReminder(s.NotifyEmail, len(stale), stale[0])
	}
}
