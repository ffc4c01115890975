package worker

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/config"
	"github.com/spec-kit/studio-booking/internal/domain"
	"github.com/spec-kit/studio-booking/internal/mailer"
	"github.com/spec-kit/studio-booking/internal/repository"
)

const maxBackoff = time.Hour

// Recorder counts delivery outcomes.
type Recorder interface {
	RecordNotification(kind, outcome string)
}

// NotificationWorker drains the notification outbox through the mailer,
// retrying failures with exponential backoff until a job is dead.
type NotificationWorker struct {
	outbox   repository.NotificationRepository
	mailer   mailer.Mailer
	logger   *zap.Logger
	metrics  Recorder
	interval time.Duration
	batch    int
	backoff  time.Duration
	lease    time.Duration
	now      func() time.Time
}

// NewNotificationWorker builds a worker from configuration.
func NewNotificationWorker(outbox repository.NotificationRepository, m mailer.Mailer, logger *zap.Logger, metrics Recorder, cfg config.NotificationConfig) *NotificationWorker {
	w := &NotificationWorker{
		outbox:   outbox,
		mailer:   m,
		logger:   logger,
		metrics:  metrics,
		interval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		batch:    cfg.BatchSize,
		backoff:  time.Duration(cfg.BackoffSeconds) * time.Second,
		now:      time.Now,
	}
	if w.interval <= 0 {
		w.interval = 5 * time.Second
	}
	if w.batch <= 0 {
		w.batch = 20
	}
	if w.backoff <= 0 {
		w.backoff = 30 * time.Second
	}
	w.lease = 2 * time.Minute
	return w
}

// WithClock overrides the time source; used by tests.
func (w *NotificationWorker) WithClock(now func() time.Time) *NotificationWorker {
	w.now = now
	return w
}

// Run polls the outbox until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("notification batch failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// ProcessBatch delivers one batch of due jobs and returns how many were sent.
func (w *NotificationWorker) ProcessBatch(ctx context.Context) (int, error) {
	jobs, err := w.outbox.ClaimDue(ctx, w.batch, w.lease)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if w.deliver(ctx, job) {
			sent++
		}
	}
	return sent, nil
}

func (w *NotificationWorker) deliver(ctx context.Context, job domain.Notification) bool {
	msg := mailer.Message{
		To:      job.Recipient,
		ToName:  job.RecipientName,
		Subject: job.Subject,
		Text:    job.TextBody,
		HTML:    job.HTMLBody,
	}
	log := w.logger.With(zap.String("notification_id", job.ID), zap.String("kind", string(job.Kind)))

	sendErr := w.mailer.Send(ctx, msg)
	if sendErr == nil {
		if err := w.outbox.MarkSent(ctx, job.ID); err != nil {
			log.Error("mark notification sent failed", zap.Error(err))
		}
		w.record(job.Kind, "sent")
		return true
	}

	attempts := job.Attempts + 1
	dead := job.MaxAttempts > 0 && attempts >= job.MaxAttempts
	next := w.now().Add(Backoff(w.backoff, attempts))
	if err := w.outbox.MarkFailed(ctx, job.ID, attempts, next, sendErr.Error(), dead); err != nil {
		log.Error("mark notification failed failed", zap.Error(err))
	}
	if dead {
		log.Error("notification dead", zap.Int("attempts", attempts), zap.Error(sendErr))
		w.record(job.Kind, "dead")
	} else {
		log.Warn("notification delivery failed", zap.Int("attempts", attempts), zap.Time("next_attempt_at", next), zap.Error(sendErr))
		w.record(job.Kind, "retry")
	}
	return false
}

func (w *NotificationWorker) record(kind domain.NotificationKind, outcome string) {
	if w.metrics != nil {
		w.metrics.RecordNotification(string(kind), outcome)
	}
}

// Backoff returns base * 2^(attempts-1), capped at one hour.
func Backoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	factor := math.Pow(2, float64(attempts-1))
	d := time.Duration(float64(base) * factor)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
