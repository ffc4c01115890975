package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// NotificationRepository is the outbox for outbound email.
type NotificationRepository interface {
	Enqueue(ctx context.Context, n *domain.Notification) error
	// ClaimDue leases up to limit pending jobs whose next attempt is due. A claimed job
	// is hidden from other workers for the lease duration.
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.Notification, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed records a failed attempt; dead jobs are never retried.
	MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string, dead bool) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository constructs repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `n.id, n.kind, n.recipient, n.recipient_name, n.subject, n.text_body, n.html_body,
        n.status, n.attempts, n.max_attempts, n.next_attempt_at, n.last_error, n.created_at, n.updated_at, n.sent_at`

func (r *notificationRepository) Enqueue(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (kind, recipient, recipient_name, subject, text_body, html_body,
            status, attempts, max_attempts, next_attempt_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	if n.Status == "" {
		n.Status = domain.NotificationPending
	}
	if n.NextAttemptAt.IsZero() {
		n.NextAttemptAt = time.Now()
	}
	return r.pool.QueryRow(ctx, query,
		n.Kind,
		n.Recipient,
		n.RecipientName,
		n.Subject,
		n.TextBody,
		n.HTMLBody,
		n.Status,
		n.Attempts,
		n.MaxAttempts,
		n.NextAttemptAt,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

func (r *notificationRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]domain.Notification, error) {
	const query = `
        WITH due AS (
            SELECT id FROM notifications
            WHERE status = 'pending' AND next_attempt_at <= NOW()
            ORDER BY next_attempt_at
            LIMIT $1
            FOR UPDATE SKIP LOCKED
        )
        UPDATE notifications n
        SET next_attempt_at = NOW() + make_interval(secs => $2), updated_at = NOW()
        FROM due WHERE n.id = due.id
        RETURNING ` + notificationColumns

	rows, err := r.pool.Query(ctx, query, limit, lease.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		jobs = append(jobs, n)
	}
	return jobs, rows.Err()
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string) error {
	const query = `
        UPDATE notifications SET status='sent', attempts=attempts+1, sent_at=NOW(), last_error=NULL, updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string, dead bool) error {
	status := domain.NotificationPending
	if dead {
		status = domain.NotificationDead
	}
	const query = `
        UPDATE notifications SET status=$1, attempts=$2, next_attempt_at=$3, last_error=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, status, attempts, nextAttemptAt, lastError, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row, n *domain.Notification) error {
	return row.Scan(
		&n.ID,
		&n.Kind,
		&n.Recipient,
		&n.RecipientName,
		&n.Subject,
		&n.TextBody,
		&n.HTMLBody,
		&n.Status,
		&n.Attempts,
		&n.MaxAttempts,
		&n.NextAttemptAt,
		&n.LastError,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.SentAt,
	)
}
