package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// BookingFilter narrows booking listings.
type BookingFilter struct {
	UserID *string
	Status *domain.BookingStatus
}

// BookingRepository encapsulates booking persistence.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	// Update writes the booking if its version is unchanged and bumps the version.
	Update(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	// ListWithOwners is List joined with owner name and email.
	ListWithOwners(ctx context.Context, filter BookingFilter) ([]domain.BookingWithOwner, error)
	Delete(ctx context.Context, id string) error
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository instantiates repository.
func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingColumns = `b.id, b.user_id, b.service_type, b.package_type, b.booking_date, b.location,
        b.additional_requirements, b.price, b.status, b.admin_notes, b.version, b.created_at, b.updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	const query = `
        INSERT INTO bookings (user_id, service_type, package_type, booking_date, location,
            additional_requirements, price, status, admin_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		booking.UserID,
		booking.ServiceType,
		booking.PackageType,
		booking.Date,
		booking.Location,
		booking.AdditionalRequirements,
		booking.Price,
		booking.Status,
		booking.AdminNotes,
	).Scan(&booking.ID, &booking.Version, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *bookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	const query = `
        UPDATE bookings SET service_type=$1, package_type=$2, booking_date=$3, location=$4,
            additional_requirements=$5, price=$6, status=$7, admin_notes=$8,
            version=version+1, updated_at=NOW()
        WHERE id=$9 AND version=$10
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		booking.ServiceType,
		booking.PackageType,
		booking.Date,
		booking.Location,
		booking.AdditionalRequirements,
		booking.Price,
		booking.Status,
		booking.AdminNotes,
		booking.ID,
		booking.Version,
	).Scan(&booking.Version, &booking.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, booking.ID); getErr != nil {
			return getErr
		}
		return ErrStaleVersion
	}
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id=$1`
	var booking domain.Booking
	if err := scanBooking(r.pool.QueryRow(ctx, query, id), &booking); err != nil {
		return nil, mapNoRows(err)
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	where, args := buildBookingWhere(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings b` + where + ` ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var booking domain.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) ListWithOwners(ctx context.Context, filter BookingFilter) ([]domain.BookingWithOwner, error) {
	where, args := buildBookingWhere(filter)
	query := `SELECT ` + bookingColumns + `, u.id, u.name, u.email
        FROM bookings b JOIN users u ON u.id = b.user_id` + where + ` ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings with owners: %w", err)
	}
	defer rows.Close()

	out := []domain.BookingWithOwner{}
	for rows.Next() {
		var item domain.BookingWithOwner
		owner := &domain.BookingOwner{}
		b := &item.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ServiceType, &b.PackageType, &b.Date, &b.Location,
			&b.AdditionalRequirements, &b.Price, &b.Status, &b.AdminNotes, &b.Version, &b.CreatedAt, &b.UpdatedAt,
			&owner.ID, &owner.Name, &owner.Email,
		); err != nil {
			return nil, err
		}
		item.Owner = owner
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildBookingWhere(filter BookingFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("b.user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(
		&b.ID,
		&b.UserID,
		&b.ServiceType,
		&b.PackageType,
		&b.Date,
		&b.Location,
		&b.AdditionalRequirements,
		&b.Price,
		&b.Status,
		&b.AdminNotes,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}
