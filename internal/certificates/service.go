package certificates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrMissingIdentifier = errors.New("hash, envelope_id, or ledger_id is required")
	ErrResolverRPC       = errors.New("resolver rpc failed")
)

// ResolutionError carries the resolver's own failure code plus the
// raw payload so operators can see exactly what came back.
type ResolutionError struct {
	Code    string
	Payload json.RawMessage
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("record resolution failed: %s", e.Code)
}

// NotRegistered reports whether the resolver found no registered
// record for the supplied identifier.
func (e *ResolutionError) NotRegistered() bool {
	return e.Code == "NOT_REGISTERED"
}

// ===== Service Interface =====

// Service issues certificate-of-verification PDFs. Nothing is
// persisted; every certificate is computed per request.
type Service interface {
	IssueCertificate(ctx context.Context, req CertificateRequest) (*Certificate, error)
}

// ===== Service Implementation =====

type service struct {
	resolver Resolver
	renderer *PDFRenderer
	logger   *zap.Logger
}

// NewService creates a new certificate service
func NewService(resolver Resolver, renderer *PDFRenderer, logger *zap.Logger) Service {
	return &service{
		resolver: resolver,
		renderer: renderer,
		logger:   logger,
	}
}

func (s *service) IssueCertificate(ctx context.Context, req CertificateRequest) (*Certificate, error) {
	req.Normalize()
	if req.Empty() {
		return nil, ErrMissingIdentifier
	}

	raw, err := s.resolver.ResolveVerifiedRecord(ctx, req.Hash, req.EnvelopeID, req.LedgerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolverRPC, err)
	}

	var payload resolverPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrResolverRPC, err)
	}

	if !payload.OK {
		code := payload.Error
		if code == "" {
			code = "RESOLUTION_FAILED"
		}
		return nil, &ResolutionError{Code: code, Payload: raw}
	}

	cert := payload.toCertificate()
	pdfBytes, err := s.renderer.Render(cert)
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	s.logger.Info("Issued verification certificate",
		zap.String("verified_id", cert.VerifiedID),
		zap.String("ledger_id", cert.LedgerID),
		zap.String("lane", cert.Lane))

	return &Certificate{
		FileName: certificateFileName(cert),
		PDF:      pdfBytes,
	}, nil
}

// certificateFileName derives the attachment name from the stablest
// identifier available.
func certificateFileName(cert *VerifiedCertificate) string {
	id := firstNonEmpty(cert.VerifiedID, cert.LedgerID, shortHash(cert.Hash))
	if id == "" {
		return "verification-certificate.pdf"
	}
	return fmt.Sprintf("verification-certificate-%s.pdf", id)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
