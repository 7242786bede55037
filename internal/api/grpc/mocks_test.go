package grpc_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/service"
)

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListQueue(ctx context.Context, session *domain.AuthSession, q service.QueueQuery) (*service.QueuePage, error) {
	args := m.Called(ctx, session, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QueuePage), args.Error(1)
}

func (m *MockAdminService) Approve(ctx context.Context, session *domain.AuthSession, queueID int32) (*service.DecisionResult, error) {
	args := m.Called(ctx, session, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DecisionResult), args.Error(1)
}

func (m *MockAdminService) Reject(ctx context.Context, session *domain.AuthSession, queueID int32) (*service.DecisionResult, error) {
	args := m.Called(ctx, session, queueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DecisionResult), args.Error(1)
}

func (m *MockAdminService) DeleteQueueItems(ctx context.Context, session *domain.AuthSession, ids []int32) (int64, error) {
	args := m.Called(ctx, session, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdminService) DeleteAlumni(ctx context.Context, session *domain.AuthSession, alumniIDs []string) (int64, error) {
	args := m.Called(ctx, session, alumniIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdminService) Stats(ctx context.Context, session *domain.AuthSession) (*domain.ReviewStats, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}

func (m *MockAdminService) RepairIntakes(ctx context.Context, session *domain.AuthSession, olderThan time.Duration) (*service.RepairReport, error) {
	args := m.Called(ctx, session, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RepairReport), args.Error(1)
}

func (m *MockAdminService) ListEmailLogs(ctx context.Context, session *domain.AuthSession, limit, offset int32) ([]domain.EmailLog, int32, error) {
	args := m.Called(ctx, session, limit, offset)
	return args.Get(0).([]domain.EmailLog), args.Get(1).(int32), args.Error(2)
}
