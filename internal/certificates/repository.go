package certificates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ===== Resolver Interface =====

// Resolver invokes the database-side record resolution. The function
// joins ledger, entity, and verification data and returns one JSON
// envelope; all identifier weighing happens server-side.
type Resolver interface {
	ResolveVerifiedRecord(ctx context.Context, hash, envelopeID, ledgerID string) (json.RawMessage, error)
}

// ===== PostgreSQL Implementation =====

type postgresResolver struct {
	db *sqlx.DB
}

func NewPostgresResolver(db *sqlx.DB) Resolver {
	return &postgresResolver{db: db}
}

func (r *postgresResolver) ResolveVerifiedRecord(ctx context.Context, hash, envelopeID, ledgerID string) (json.RawMessage, error) {
	query := `SELECT resolve_verified_record($1, $2, $3)`

	var payload []byte
	err := r.db.GetContext(ctx, &payload, query,
		nullString(hash), nullString(envelopeID), nullString(ledgerID))
	if err != nil {
		return nil, fmt.Errorf("failed to call resolve_verified_record: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("resolve_verified_record returned no payload")
	}
	return json.RawMessage(payload), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
