package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// CatalogRepository stores the admin managed service and pricing catalog.
type CatalogRepository interface {
	// Upsert writes the entry for its service and package pair, replacing any
	// existing one, and fills in the stored id and timestamps.
	Upsert(ctx context.Context, entry *domain.CatalogEntry) error
	Find(ctx context.Context, service domain.ServiceType, pkg domain.PackageType) (*domain.CatalogEntry, error)
	List(ctx context.Context, activeOnly bool) ([]domain.CatalogEntry, error)
	Delete(ctx context.Context, id string) error
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a Postgres-backed implementation.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

const catalogColumns = `id, service_type, package_type, title, description, price, active, created_at, updated_at`

func (r *catalogRepository) Upsert(ctx context.Context, entry *domain.CatalogEntry) error {
	const query = `
        INSERT INTO catalog_entries (service_type, package_type, title, description, price, active)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (service_type, package_type) DO UPDATE SET
            title=EXCLUDED.title, description=EXCLUDED.description, price=EXCLUDED.price,
            active=EXCLUDED.active, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		entry.ServiceType,
		entry.PackageType,
		entry.Title,
		entry.Description,
		entry.Price,
		entry.Active,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

func (r *catalogRepository) Find(ctx context.Context, service domain.ServiceType, pkg domain.PackageType) (*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE service_type=$1 AND package_type=$2`
	var entry domain.CatalogEntry
	if err := scanCatalogEntry(r.pool.QueryRow(ctx, query, service, pkg), &entry); err != nil {
		return nil, mapNoRows(err)
	}
	return &entry, nil
}

func (r *catalogRepository) List(ctx context.Context, activeOnly bool) ([]domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY service_type, price`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.CatalogEntry{}
	for rows.Next() {
		var entry domain.CatalogEntry
		if err := scanCatalogEntry(rows, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *catalogRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM catalog_entries WHERE id=$1`, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCatalogEntry(row pgx.Row, entry *domain.CatalogEntry) error {
	return row.Scan(
		&entry.ID,
		&entry.ServiceType,
		&entry.PackageType,
		&entry.Title,
		&entry.Description,
		&entry.Price,
		&entry.Active,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
}
