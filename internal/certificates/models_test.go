package certificates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) *resolverPayload {
	t.Helper()
	var payload resolverPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return &payload
}

func TestToCertificateArchivePointerPreference(t *testing.T) {
	payload := decodePayload(t, `{
		"ok": true,
		"best_pdf": "archive/best.pdf",
		"public_pdf": "archive/public.pdf",
		"verified": {"storage_path": "archive/verified.pdf"}
	}`)
	assert.Equal(t, "archive/best.pdf", payload.toCertificate().ArchivePath)

	payload = decodePayload(t, `{
		"ok": true,
		"public_pdf": "archive/public.pdf",
		"verified": {"storage_path": "archive/verified.pdf"}
	}`)
	assert.Equal(t, "archive/public.pdf", payload.toCertificate().ArchivePath)

	payload = decodePayload(t, `{
		"ok": true,
		"verified": {"storage_path": "archive/verified.pdf"}
	}`)
	assert.Equal(t, "archive/verified.pdf", payload.toCertificate().ArchivePath)
}

func TestToCertificateHashPrecedence(t *testing.T) {
	payload := decodePayload(t, `{
		"ok": true,
		"hash": "aaaa1111",
		"verified": {"content_hash": "bbbb2222"}
	}`)
	assert.Equal(t, "aaaa1111", payload.toCertificate().Hash)

	payload = decodePayload(t, `{
		"ok": true,
		"verified": {"content_hash": "bbbb2222"}
	}`)
	assert.Equal(t, "bbbb2222", payload.toCertificate().Hash)
}

func TestToCertificateIdentifierFallbacks(t *testing.T) {
	payload := decodePayload(t, `{
		"ok": true,
		"verified_document_id": "vd-1",
		"ledger_id": "lr-top",
		"ledger": {"id": "lr-nested", "title": "Budget Resolution", "status": "executed", "lane": "production"}
	}`)

	cert := payload.toCertificate()
	assert.Equal(t, "vd-1", cert.VerifiedID)
	assert.Equal(t, "lr-top", cert.LedgerID)
	assert.Equal(t, "Budget Resolution", cert.Title)
	assert.Equal(t, "executed", cert.LedgerStatus)
	assert.Equal(t, "production", cert.Lane)

	payload = decodePayload(t, `{
		"ok": true,
		"ledger": {"id": "lr-nested"},
		"verified": {"id": "vd-nested", "lane": "sandbox"}
	}`)

	cert = payload.toCertificate()
	assert.Equal(t, "vd-nested", cert.VerifiedID)
	assert.Equal(t, "lr-nested", cert.LedgerID)
	assert.Equal(t, "sandbox", cert.Lane)
}

func TestToCertificateToleratesMissingSections(t *testing.T) {
	payload := decodePayload(t, `{"ok": true}`)

	cert := payload.toCertificate()

	assert.Empty(t, cert.EntityName)
	assert.Empty(t, cert.ArchivePath)
	assert.Empty(t, cert.Hash)
	assert.True(t, cert.VerifiedAt.IsZero())
}

func TestParseResolverTime(t *testing.T) {
	parsed := parseResolverTime("2026-03-14T09:26:53Z")
	assert.Equal(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), parsed)

	parsed = parseResolverTime("2026-03-14 09:26:53.123456+00")
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())

	assert.True(t, parseResolverTime("").IsZero())
	assert.True(t, parseResolverTime("not a timestamp").IsZero())
}

func TestCertificateRequestNormalizeAndEmpty(t *testing.T) {
	req := CertificateRequest{Hash: "  abc  ", EnvelopeID: "\t", LedgerID: ""}
	req.Normalize()

	assert.Equal(t, "abc", req.Hash)
	assert.Empty(t, req.EnvelopeID)
	assert.False(t, req.Empty())

	empty := CertificateRequest{Hash: "   "}
	empty.Normalize()
	assert.True(t, empty.Empty())
}
