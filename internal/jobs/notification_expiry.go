// File: internal/jobs/notification_expiry.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"swapseva_backend/internal/config"
	"swapseva_backend/internal/notification"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// NotificationExpiryJob purges notifications whose expiry date has passed.
type NotificationExpiryJob struct {
	notificationService notification.Service
	logger              *zap.Logger
	cfg                 *config.Config
	cronScheduler       *cron.Cron
}

// NewNotificationExpiryJob creates a new NotificationExpiryJob.
func NewNotificationExpiryJob(
	notificationService notification.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *NotificationExpiryJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &NotificationExpiryJob{
		notificationService: notificationService,
		logger:              logger.Named("NotificationExpiryJob"),
		cfg:                 cfg,
		cronScheduler:       scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *NotificationExpiryJob) SetupAndStart() error {
	jobSpec := j.cfg.NotificationExpiryJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Notification expiry job schedule not defined (NOTIFICATION_EXPIRY_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule notification expiry job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Notification expiry job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *NotificationExpiryJob) runJob() {
	j.logger.Info("Starting notification expiry job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purgedCount, err := j.notificationService.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("Notification expiry job run failed", zap.Error(err))
	} else {
		j.logger.Info("Notification expiry job run completed", zap.Int64("notifications_purged", purgedCount))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *NotificationExpiryJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping notification expiry job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Notification expiry job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Notification expiry job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.zl.Info(msg, cl.parseKeysAndValues(keysAndValues...)...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
