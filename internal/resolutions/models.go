package resolutions

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordStatus represents the lifecycle state of a ledger record.
// Transitions happen in external collaborators; this service only
// reads the value.
type RecordStatus string

const (
	RecordStatusDraft            RecordStatus = "draft"
	RecordStatusPendingSignature RecordStatus = "pending_signature"
	RecordStatusExecuted         RecordStatus = "executed"
	RecordStatusArchived         RecordStatus = "archived"
)

// Lane partitions records into sandbox and production data.
type Lane string

const (
	LaneSandbox    Lane = "sandbox"
	LaneProduction Lane = "production"
)

// LedgerRecord is a governance record (resolution, consent, minute)
// in an entity's ledger.
type LedgerRecord struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	EntityID  uuid.UUID    `json:"entity_id" db:"entity_id"`
	Title     string       `json:"title" db:"title"`
	Body      string       `json:"body" db:"body"`
	Status    RecordStatus `json:"status" db:"status"`
	Lane      Lane         `json:"lane" db:"lane"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// Entity is the organization a ledger record belongs to.
type Entity struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EnvelopeStatus represents the signing state of an envelope.
type EnvelopeStatus string

const (
	EnvelopeStatusCreated EnvelopeStatus = "created"
	EnvelopeStatusSent    EnvelopeStatus = "sent"
	EnvelopeStatusSigned  EnvelopeStatus = "signed"
	EnvelopeStatusVoided  EnvelopeStatus = "voided"
)

// SignatureEnvelope tracks an e-signature request for a ledger
// record. The metadata bag carries collaborator-written keys and must
// be merged, never replaced wholesale.
type SignatureEnvelope struct {
	ID                     uuid.UUID       `json:"id" db:"id"`
	RecordID               *uuid.UUID      `json:"record_id,omitempty" db:"record_id"`
	Status                 EnvelopeStatus  `json:"status" db:"status"`
	Metadata               json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	StoragePath            *string         `json:"storage_path,omitempty" db:"storage_path"`
	SupportingDocumentPath *string         `json:"supporting_document_path,omitempty" db:"supporting_document_path"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// UnlinkedEnvelope is a reconcile-worker row: an envelope that
// references a ledger record but has no storage pointer recorded yet.
type UnlinkedEnvelope struct {
	EnvelopeID  uuid.UUID       `db:"envelope_id"`
	RecordID    uuid.UUID       `db:"record_id"`
	RecordTitle string          `db:"record_title"`
	EntityID    uuid.UUID       `db:"entity_id"`
	EntitySlug  string          `db:"entity_slug"`
	EntityName  string          `db:"entity_name"`
	Metadata    json.RawMessage `db:"metadata"`
}

// RenderRequest is the body of POST /api/v1/resolutions/render.
type RenderRequest struct {
	RecordID   string `json:"record_id"`
	EnvelopeID string `json:"envelope_id"`
}

// RenderResult reports where the rendered PDF landed.
type RenderResult struct {
	OK            bool   `json:"ok"`
	RecordID      string `json:"record_id"`
	EnvelopeID    string `json:"envelope_id"`
	StorageBucket string `json:"storage_bucket"`
	StoragePath   string `json:"storage_path"`
	EntitySlug    string `json:"entity_slug"`
}

// ObjectKey returns the deterministic storage key for a record's
// rendered resolution. Re-rendering overwrites the same object.
func ObjectKey(entitySlug string, recordID uuid.UUID) string {
	return fmt.Sprintf("%s/Resolutions/%s.pdf", entitySlug, recordID)
}
