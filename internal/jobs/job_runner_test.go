package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"alumni-registry-backend/internal/config"
	"alumni-registry-backend/internal/service"
)

type MockDispatcher struct {
	service.NotificationDispatcher
	mock.Mock
}

func (m *MockDispatcher) DeliverDue(ctx context.Context, limit int32) (service.DeliveryBatch, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(service.DeliveryBatch), args.Error(1)
}

type MockWorkflow struct {
	service.RegistrationWorkflow
	mock.Mock
}

func (m *MockWorkflow) RepairIntakes(ctx context.Context, olderThan time.Time) (*service.RepairReport, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RepairReport), args.Error(1)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Notification.BatchSize = 25
	cfg.Registration.RepairAfter = 15 * time.Minute
	return cfg
}

func TestDeliverNotifications(t *testing.T) {
	d := new(MockDispatcher)
	d.On("DeliverDue", mock.Anything, int32(25)).Return(service.DeliveryBatch{Attempted: 3, Sent: 2, Failed: 1}, nil).Once()

	jr := NewJobRunner(&Services{Notifications: d}, testConfig())
	jr.DeliverNotifications()

	d.AssertExpectations(t)
}

func TestRepairIntakes_UsesCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w := new(MockWorkflow)
	w.On("RepairIntakes", mock.Anything, now.Add(-15*time.Minute)).
		Return(&service.RepairReport{Scanned: 1, Compensated: 1}, nil).Once()

	jr := NewJobRunner(&Services{Workflow: w}, testConfig())
	jr.now = func() time.Time { return now }
	jr.RepairIntakes()

	w.AssertExpectations(t)
}

func TestRunWithRecovery(t *testing.T) {
	w := new(MockWorkflow)
	w.On("RepairIntakes", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	d := new(MockDispatcher)
	d.On("DeliverDue", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("transport exploded")
	})

	jr := NewJobRunner(&Services{Workflow: w, Notifications: d}, testConfig())
	assert.NotPanics(t, jr.RunAll)
	w.AssertNumberOfCalls(t, "RepairIntakes", 1)
}
