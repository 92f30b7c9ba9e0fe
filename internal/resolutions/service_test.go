package resolutions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetLedgerRecord(ctx context.Context, id uuid.UUID) (*LedgerRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LedgerRecord), args.Error(1)
}

func (m *MockRepository) GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Entity), args.Error(1)
}

func (m *MockRepository) GetEnvelope(ctx context.Context, id uuid.UUID) (*SignatureEnvelope, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SignatureEnvelope), args.Error(1)
}

func (m *MockRepository) UpdateEnvelopeDocument(ctx context.Context, id uuid.UUID, metadata json.RawMessage, storagePath string) error {
	args := m.Called(ctx, id, metadata, storagePath)
	return args.Error(0)
}

func (m *MockRepository) ListUnlinkedEnvelopes(ctx context.Context, limit int) ([]UnlinkedEnvelope, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UnlinkedEnvelope), args.Error(1)
}

// MockS3Client is a mock implementation of the storage client
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	args := m.Called(ctx, bucket, key, body, contentType)
	return args.Error(0)
}

func (m *MockS3Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockS3Client) Head(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockS3Client) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockS3Client) GetPresignedURL(ctx context.Context, bucket, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, bucket, key, expiration)
	return args.String(0), args.Error(1)
}

func testFixtures() (*LedgerRecord, *Entity, *SignatureEnvelope) {
	entity := &Entity{
		ID:   uuid.New(),
		Slug: "acme-holdings",
		Name: "Acme Holdings Inc",
	}
	record := &LedgerRecord{
		ID:       uuid.New(),
		EntityID: entity.ID,
		Title:    "Board Resolution 2026-08",
		Body:     "Resolved, that the corporation adopt the proposed budget.",
		Status:   RecordStatusExecuted,
		Lane:     LaneProduction,
	}
	envelope := &SignatureEnvelope{
		ID:       uuid.New(),
		RecordID: &record.ID,
		Status:   EnvelopeStatusSigned,
		Metadata: json.RawMessage(`{"provider":"docuseal","request_id":"req-91"}`),
	}
	return record, entity, envelope
}

func newTestService(repo Repository, store *MockS3Client) Service {
	opts := DefaultPDFOptions()
	opts.OrgName = "Quorum Ops"
	return NewService(repo, store, NewPDFRenderer(opts), "minute_book", zap.NewNop())
}

func TestRenderResolutionSuccess(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	record, entity, envelope := testFixtures()
	expectedKey := fmt.Sprintf("%s/Resolutions/%s.pdf", entity.Slug, record.ID)

	mockRepo.On("GetLedgerRecord", ctx, record.ID).Return(record, nil)
	mockRepo.On("GetEntity", ctx, entity.ID).Return(entity, nil)
	mockRepo.On("GetEnvelope", ctx, envelope.ID).Return(envelope, nil)
	mockStore.On("Upload", ctx, "minute_book", expectedKey, mock.Anything, "application/pdf").Return(nil)
	mockRepo.On("UpdateEnvelopeDocument", ctx, envelope.ID, mock.Anything, expectedKey).Return(nil)

	result, err := service.RenderResolution(ctx, record.ID, envelope.ID)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.OK)
	assert.Equal(t, record.ID.String(), result.RecordID)
	assert.Equal(t, envelope.ID.String(), result.EnvelopeID)
	assert.Equal(t, "minute_book", result.StorageBucket)
	assert.Equal(t, expectedKey, result.StoragePath)
	assert.Equal(t, entity.Slug, result.EntitySlug)

	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestRenderResolutionRejectsNilIDsBeforeAnyLookup(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	_, err := service.RenderResolution(context.Background(), uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = service.RenderResolution(context.Background(), uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	mockRepo.AssertNotCalled(t, "GetLedgerRecord", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderResolutionRecordNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	recordID := uuid.New()
	mockRepo.On("GetLedgerRecord", ctx, recordID).Return(nil, nil)

	_, err := service.RenderResolution(ctx, recordID, uuid.New())

	assert.ErrorIs(t, err, ErrRecordNotFound)
	mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderResolutionEntityNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	record, entity, envelope := testFixtures()
	mockRepo.On("GetLedgerRecord", ctx, record.ID).Return(record, nil)
	mockRepo.On("GetEntity", ctx, entity.ID).Return(nil, nil)

	_, err := service.RenderResolution(ctx, record.ID, envelope.ID)

	assert.ErrorIs(t, err, ErrEntityNotFound)
	mockRepo.AssertNotCalled(t, "GetEnvelope", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderResolutionEnvelopeNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	record, entity, envelope := testFixtures()
	mockRepo.On("GetLedgerRecord", ctx, record.ID).Return(record, nil)
	mockRepo.On("GetEntity", ctx, entity.ID).Return(entity, nil)
	mockRepo.On("GetEnvelope", ctx, envelope.ID).Return(nil, nil)

	_, err := service.RenderResolution(ctx, record.ID, envelope.ID)

	assert.ErrorIs(t, err, ErrEnvelopeNotFound)
	mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderResolutionUploadFailure(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	record, entity, envelope := testFixtures()
	mockRepo.On("GetLedgerRecord", ctx, record.ID).Return(record, nil)
	mockRepo.On("GetEntity", ctx, entity.ID).Return(entity, nil)
	mockRepo.On("GetEnvelope", ctx, envelope.ID).Return(envelope, nil)
	mockStore.On("Upload", ctx, "minute_book", mock.Anything, mock.Anything, "application/pdf").
		Return(errors.New("bucket unavailable"))

	result, err := service.RenderResolution(ctx, record.ID, envelope.ID)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to upload")
	mockRepo.AssertNotCalled(t, "UpdateEnvelopeDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRenderResolutionPatchFailureIsNonFatal(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	record, entity, envelope := testFixtures()
	mockRepo.On("GetLedgerRecord", ctx, record.ID).Return(record, nil)
	mockRepo.On("GetEntity", ctx, entity.ID).Return(entity, nil)
	mockRepo.On("GetEnvelope", ctx, envelope.ID).Return(envelope, nil)
	mockStore.On("Upload", ctx, "minute_book", mock.Anything, mock.Anything, "application/pdf").Return(nil)
	mockRepo.On("UpdateEnvelopeDocument", ctx, envelope.ID, mock.Anything, mock.Anything).
		Return(errors.New("connection reset"))

	result, err := service.RenderResolution(ctx, record.ID, envelope.ID)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.OK)
}

func TestRenderResolutionMergesEnvelopeMetadata(t *testing.T) {
	mockRepo := new(MockRepository)
	mockStore := new(MockS3Client)
	service := newTestService(mockRepo, mockStore)

	ctx := context.Background()
	record, entity, envelope := testFixtures()
	expectedKey := ObjectKey(entity.Slug, record.ID)

	mockRepo.On("GetLedgerRecord", ctx, record.ID).Return(record, nil)
	mockRepo.On("GetEntity", ctx, entity.ID).Return(entity, nil)
	mockRepo.On("GetEnvelope", ctx, envelope.ID).Return(envelope, nil)
	mockStore.On("Upload", ctx, "minute_book", expectedKey, mock.Anything, "application/pdf").Return(nil)
	mockRepo.On("UpdateEnvelopeDocument", ctx, envelope.ID, mock.MatchedBy(func(raw json.RawMessage) bool {
		var merged map[string]interface{}
		if err := json.Unmarshal(raw, &merged); err != nil {
			return false
		}
		// Collaborator-written keys survive the merge
		return merged["provider"] == "docuseal" &&
			merged["request_id"] == "req-91" &&
			merged["record_id"] == record.ID.String() &&
			merged["entity_id"] == entity.ID.String() &&
			merged["entity_slug"] == entity.Slug &&
			merged["entity_name"] == entity.Name &&
			merged["storage_path"] == expectedKey
	}), expectedKey).Return(nil)

	result, err := service.RenderResolution(ctx, record.ID, envelope.ID)

	assert.NoError(t, err)
	assert.True(t, result.OK)
	mockRepo.AssertExpectations(t)

	// The envelope is re-read before the merge
	mockRepo.AssertNumberOfCalls(t, "GetEnvelope", 2)
}

func TestObjectKeyIsDeterministic(t *testing.T) {
	recordID := uuid.MustParse("6a9f3a34-20c5-4f0b-9d2a-6f54be55c3f1")

	key := ObjectKey("acme-holdings", recordID)

	assert.Equal(t, "acme-holdings/Resolutions/6a9f3a34-20c5-4f0b-9d2a-6f54be55c3f1.pdf", key)
	assert.Equal(t, key, ObjectKey("acme-holdings", recordID))
}
