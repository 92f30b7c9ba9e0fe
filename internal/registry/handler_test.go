package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListRecords(ctx context.Context, filter ListFilter) (*ListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListResult), args.Error(1)
}

func (m *MockService) GetRecord(ctx context.Context, id uuid.UUID) (*VerifiedRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VerifiedRecord), args.Error(1)
}

func (m *MockService) GetDownloadURL(ctx context.Context, id uuid.UUID) (*DownloadURL, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DownloadURL), args.Error(1)
}

func (m *MockService) ExportRecords(ctx context.Context, filter ListFilter, format ExportFormat) (*ExportResult, error) {
	args := m.Called(ctx, filter, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExportResult), args.Error(1)
}

func setupRouter(service Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(service, zap.NewNop())
	group := router.Group("/api/v1")
	handler.RegisterRoutes(group)
	return router
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestListRecordsEndpoint(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	service.On("ListRecords", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.Lane == "production" && f.Page == 2 && f.PageSize == 10
	})).Return(&ListResult{OK: true, Records: testRecords(), Total: 12, Page: 2, PageSize: 10}, nil)

	w := doGet(router, "/api/v1/registry?lane=production&page=2&page_size=10")

	assert.Equal(t, http.StatusOK, w.Code)

	var result ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, 12, result.Total)
	service.AssertExpectations(t)
}

func TestListRecordsRejectsUnknownLane(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	w := doGet(router, "/api/v1/registry?lane=staging")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "ListRecords", mock.Anything, mock.Anything)
}

func TestGetRecordEndpoint(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	rec := testRecords()[0]
	service.On("GetRecord", mock.Anything, rec.ID).Return(&rec, nil)

	w := doGet(router, "/api/v1/registry/"+rec.ID.String())

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OK     bool           `json:"ok"`
		Record VerifiedRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, rec.ID, body.Record.ID)
}

func TestGetRecordInvalidID(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	w := doGet(router, "/api/v1/registry/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "GetRecord", mock.Anything, mock.Anything)
}

func TestGetRecordNotFoundEndpoint(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	id := uuid.New()
	service.On("GetRecord", mock.Anything, id).Return(nil, ErrRecordNotFound)

	w := doGet(router, "/api/v1/registry/"+id.String())

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
}

func TestGetDownloadURLEndpoint(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	id := uuid.New()
	service.On("GetDownloadURL", mock.Anything, id).
		Return(&DownloadURL{OK: true, RecordID: id, URL: "https://s3.example.com/signed"}, nil)

	w := doGet(router, "/api/v1/registry/"+id.String()+"/download-url")

	assert.Equal(t, http.StatusOK, w.Code)

	var result DownloadURL
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.OK)
	assert.Equal(t, "https://s3.example.com/signed", result.URL)
}

func TestGetDownloadURLWithoutObject(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	id := uuid.New()
	service.On("GetDownloadURL", mock.Anything, id).Return(nil, ErrNoArchivedObject)

	w := doGet(router, "/api/v1/registry/"+id.String()+"/download-url")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpointCSV(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	service.On("ExportRecords", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.Lane == "sandbox"
	}), ExportFormatCSV).Return(&ExportResult{
		FileName:    "verified-registry-20250714-093000.csv",
		ContentType: "text/csv",
		Data:        []byte("id,entity_slug\n"),
		RecordCount: 0,
	}, nil)

	w := doGet(router, "/api/v1/registry/export?lane=sandbox")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, fmt.Sprintf("attachment; filename=%q", "verified-registry-20250714-093000.csv"),
		w.Header().Get("Content-Disposition"))
	assert.Equal(t, "id,entity_slug\n", w.Body.String())
	service.AssertExpectations(t)
}

func TestExportEndpointUnknownFormat(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	service.On("ExportRecords", mock.Anything, mock.Anything, ExportFormat("pdf")).
		Return(nil, fmt.Errorf("%w: pdf", ErrUnsupportedFormat))

	w := doGet(router, "/api/v1/registry/export?format=pdf")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_FORMAT", body["error"])
}

func TestExportEndpointDefaultsToCSV(t *testing.T) {
	service := new(MockService)
	router := setupRouter(service)

	service.On("ExportRecords", mock.Anything, mock.Anything, ExportFormatCSV).
		Return(&ExportResult{FileName: "x.csv", ContentType: "text/csv", Data: []byte("\n")}, nil)

	w := doGet(router, "/api/v1/registry/export")

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}
