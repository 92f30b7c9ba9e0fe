package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines read access to the verified-document registry
type Repository interface {
	ListVerifiedRecords(ctx context.Context, filter ListFilter) ([]VerifiedRecord, int, error)
	GetVerifiedRecord(ctx context.Context, id uuid.UUID) (*VerifiedRecord, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a PostgreSQL-backed registry repository
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const verifiedRecordColumns = `id, entity_id, entity_slug, entity_name, ledger_id, envelope_id,
	   title, content_hash, storage_path, minute_book_path, evidence_kind,
	   verification_level, lane, verified_at, created_at`

// ListVerifiedRecords returns a filtered page of registry rows plus the
// unfiltered-by-paging total. PageSize 0 means no limit.
func (r *postgresRepository) ListVerifiedRecords(ctx context.Context, filter ListFilter) ([]VerifiedRecord, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 0

	if filter.Lane != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("lane = $%d", argCount))
		args = append(args, filter.Lane)
	}

	if filter.EntityID != nil {
		argCount++
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argCount))
		args = append(args, *filter.EntityID)
	}

	if filter.VerificationLevel != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("verification_level = $%d", argCount))
		args = append(args, filter.VerificationLevel)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM verified_records` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count verified records: %w", err)
	}

	query := `SELECT ` + verifiedRecordColumns + ` FROM verified_records` + whereClause +
		" ORDER BY verified_at DESC"

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if filter.Page < 1 {
			offset = 0
		}

		argCount++
		limitArg := argCount
		argCount++
		offsetArg := argCount

		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", limitArg, offsetArg)
		args = append(args, filter.PageSize, offset)
	}

	var records []VerifiedRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list verified records: %w", err)
	}

	return records, totalCount, nil
}

func (r *postgresRepository) GetVerifiedRecord(ctx context.Context, id uuid.UUID) (*VerifiedRecord, error) {
	query := `SELECT ` + verifiedRecordColumns + ` FROM verified_records WHERE id = $1`

	var record VerifiedRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verified record: %w", err)
	}

	return &record, nil
}
