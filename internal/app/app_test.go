package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-registry-backend/internal/config"
	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/service"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Storage.Type = "memory"
	cfg.Storage.SeedSchools = []config.SchoolSeed{{Code: "QRC", Name: "Queen's College", State: "LAG", Level: "HI"}}
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Notification.Transport = "log"
	return cfg
}

func TestNew_MemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	schools, err := a.Directory.ListSchools(ctx, "")
	require.NoError(t, err)
	require.Len(t, schools, 1)

	res, err := a.Workflow.IntakeNew(ctx, service.NewApplicantIntake{
		Profile: domain.Profile{
			FullName:       "Funke Akindele",
			Email:          "funke@example.com",
			Phone:          "+2348030000000",
			SchoolID:       schools[0].ID,
			GraduationYear: "1995",
			AdmissionYear:  "1989",
		},
		Password: "password123",
	})
	require.NoError(t, err)
	assert.True(t, res.Notification.Delivered)

	admin := &domain.AuthSession{AccountID: 1000, Role: domain.AccountRoleAdmin}
	decision, err := a.Admin.Approve(ctx, admin, res.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusApproved, decision.Item.Status)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMailTransport(t *testing.T) {
	tr, err := NewMailTransport(config.NotificationConfig{Transport: "http", Endpoint: "http://localhost:9/send"})
	require.NoError(t, err)
	assert.IsType(t, &service.HTTPTransport{}, tr)

	tr, err = NewMailTransport(config.NotificationConfig{Transport: "sendgrid", SendGridAPIKey: "key"})
	require.NoError(t, err)
	assert.IsType(t, &service.SendGridTransport{}, tr)

	_, err = NewMailTransport(config.NotificationConfig{Transport: "pigeon"})
	assert.Error(t, err)
}
