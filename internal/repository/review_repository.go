package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// ReviewRepository manages review persistence.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	// List returns all reviews, or only approved ones when approvedOnly is set.
	List(ctx context.Context, approvedOnly bool) ([]domain.Review, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository constructs repository.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

const reviewColumns = `id, user_id, booking_id, rating, comment, approved, created_at, updated_at`

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	const query = `
        INSERT INTO reviews (user_id, booking_id, rating, comment, approved)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		review.UserID,
		review.BookingID,
		review.Rating,
		review.Comment,
		review.Approved,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (r *reviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id=$1`
	var review domain.Review
	if err := scanReview(r.pool.QueryRow(ctx, query, id), &review); err != nil {
		return nil, mapNoRows(err)
	}
	return &review, nil
}

func (r *reviewRepository) List(ctx context.Context, approvedOnly bool) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if approvedOnly {
		query += ` WHERE approved = TRUE`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := scanReview(rows, &review); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE reviews SET approved=$1, updated_at=NOW() WHERE id=$2`, approved, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReview(row pgx.Row, review *domain.Review) error {
	return row.Scan(
		&review.ID,
		&review.UserID,
		&review.BookingID,
		&review.Rating,
		&review.Comment,
		&review.Approved,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
}
