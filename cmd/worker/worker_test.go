package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/internal/shared"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Import(ctx context.Context, up transfer.Upload) (*transfer.Summary, error) {
	return nil, m.Called(ctx, up).Error(1)
}

func (m *mockService) ImportAsync(ctx context.Context, up transfer.Upload) (*transfer.ImportJob, error) {
	return nil, m.Called(ctx, up).Error(1)
}

func (m *mockService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *mockService) FailJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	return m.Called(ctx, jobID, reason).Error(0)
}

func (m *mockService) GetJob(ctx context.Context, id uuid.UUID) (*transfer.ImportJob, error) {
	return nil, m.Called(ctx, id).Error(1)
}

func (m *mockService) CleanupJobs(ctx context.Context, olderThanDays int) (int, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Int(0), args.Error(1)
}

func (m *mockService) Export(ctx context.Context, format transfer.Format, w io.Writer) error {
	return m.Called(ctx, format, w).Error(0)
}

func TestHandlerRegistry_RoutesTaskTypes(t *testing.T) {
	svc := new(mockService)
	jobID := uuid.New()
	svc.On("ProcessJob", mock.Anything, jobID).Return(nil)
	svc.On("CleanupJobs", mock.Anything, 7).Return(2, nil)

	mux := asynq.NewServeMux()
	newHandlerRegistry(svc, 7).RegisterHandlers(mux)

	payload, err := json.Marshal(shared.ImportCatalogPayload{JobID: jobID.String()})
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(shared.TypeImportCatalog, payload)))
	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(shared.TypeImportCleanup, nil)))
	svc.AssertExpectations(t)
}

func TestHandlerRegistry_UnknownTypeIsRejected(t *testing.T) {
	mux := asynq.NewServeMux()
	newHandlerRegistry(new(mockService), 7).RegisterHandlers(mux)

	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("email:send", nil)))
}

func TestHealthChecker_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	healthy := &HealthChecker{checks: []check{{"Redis Connection", ok}, {"Object Storage", ok}}}
	w := httptest.NewRecorder()
	healthy.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"READY"}`, w.Body.String())

	degraded := &HealthChecker{checks: []check{{"Redis Connection", ok}, {"Object Storage", down}}}
	w = httptest.NewRecorder()
	degraded.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Object Storage failed")

	w = httptest.NewRecorder()
	degraded.routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
