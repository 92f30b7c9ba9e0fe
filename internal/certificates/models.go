package certificates

import (
	"strings"
	"time"
)

// CertificateRequest carries the lookup identifier in any of three
// forms. One is enough; the resolver weighs them server-side.
type CertificateRequest struct {
	Hash       string `json:"hash" form:"hash"`
	EnvelopeID string `json:"envelope_id" form:"envelope_id"`
	LedgerID   string `json:"ledger_id" form:"ledger_id"`
}

// Normalize trims surrounding whitespace from every identifier.
func (r *CertificateRequest) Normalize() {
	r.Hash = strings.TrimSpace(r.Hash)
	r.EnvelopeID = strings.TrimSpace(r.EnvelopeID)
	r.LedgerID = strings.TrimSpace(r.LedgerID)
}

// Empty reports whether no identifier was supplied.
func (r *CertificateRequest) Empty() bool {
	return r.Hash == "" && r.EnvelopeID == "" && r.LedgerID == ""
}

// Certificate is a rendered certificate ready to stream.
type Certificate struct {
	FileName string
	PDF      []byte
}

// resolverPayload mirrors the JSON envelope returned by the
// resolve_verified_record database function. It is parsed exactly
// once; everything downstream consumes VerifiedCertificate.
type resolverPayload struct {
	OK                 bool              `json:"ok"`
	Error              string            `json:"error,omitempty"`
	Entity             *resolverEntity   `json:"entity,omitempty"`
	Ledger             *resolverLedger   `json:"ledger,omitempty"`
	Verified           *resolverVerified `json:"verified,omitempty"`
	BestPDF            string            `json:"best_pdf,omitempty"`
	PublicPDF          string            `json:"public_pdf,omitempty"`
	Hash               string            `json:"hash,omitempty"`
	VerifiedDocumentID string            `json:"verified_document_id,omitempty"`
	LedgerID           string            `json:"ledger_id,omitempty"`
}

type resolverEntity struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type resolverLedger struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Lane   string `json:"lane"`
}

type resolverVerified struct {
	ID                string `json:"id"`
	ContentHash       string `json:"content_hash"`
	StoragePath       string `json:"storage_path"`
	EvidenceKind      string `json:"evidence_kind"`
	VerificationLevel string `json:"verification_level"`
	Lane              string `json:"lane"`
	VerifiedAt        string `json:"verified_at"`
	MinuteBookPath    string `json:"minute_book_path"`
}

// VerifiedCertificate is the strict internal record the renderer
// consumes. All field fallbacks live in toCertificate.
type VerifiedCertificate struct {
	EntityName        string
	EntitySlug        string
	Title             string
	LedgerID          string
	LedgerStatus      string
	VerifiedID        string
	VerifiedAt        time.Time
	ArchivePath       string
	EvidenceKind      string
	MinuteBookPath    string
	Hash              string
	Lane              string
	VerificationLevel string
}

// toCertificate coerces the resolver payload into the strict record.
// Pointer preference: best_pdf, then public_pdf, then the verified
// row's own storage pointer. The top-level hash wins over the nested
// content hash.
func (p *resolverPayload) toCertificate() *VerifiedCertificate {
	cert := &VerifiedCertificate{
		ArchivePath: firstNonEmpty(p.BestPDF, p.PublicPDF),
		Hash:        p.Hash,
		VerifiedID:  p.VerifiedDocumentID,
		LedgerID:    p.LedgerID,
	}

	if p.Entity != nil {
		cert.EntityName = p.Entity.Name
		cert.EntitySlug = p.Entity.Slug
	}
	if p.Ledger != nil {
		cert.Title = p.Ledger.Title
		cert.LedgerStatus = p.Ledger.Status
		cert.Lane = p.Ledger.Lane
		cert.LedgerID = firstNonEmpty(cert.LedgerID, p.Ledger.ID)
	}
	if p.Verified != nil {
		cert.ArchivePath = firstNonEmpty(cert.ArchivePath, p.Verified.StoragePath)
		cert.Hash = firstNonEmpty(cert.Hash, p.Verified.ContentHash)
		cert.VerifiedID = firstNonEmpty(cert.VerifiedID, p.Verified.ID)
		cert.EvidenceKind = p.Verified.EvidenceKind
		cert.MinuteBookPath = p.Verified.MinuteBookPath
		cert.VerificationLevel = p.Verified.VerificationLevel
		cert.Lane = firstNonEmpty(cert.Lane, p.Verified.Lane)
		cert.VerifiedAt = parseResolverTime(p.Verified.VerifiedAt)
	}

	return cert
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseResolverTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999-07", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
