package service

import (
	"context"
	"testing"

	"botdesk/internal/database"
	"botdesk/internal/domain"
	"botdesk/internal/events"
	"botdesk/internal/models"
	"botdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformAdministration(t *testing.T) {
	f := newFixture(t)
	svc := NewPlatformService(f.db, f.access, f.bus, f.logger)
	ctx := context.Background()

	admin := f.user(t, "root@example.com")
	f.do(t, func(uow *database.UnitOfWork) error {
		return uow.Users().Update(ctx, admin.ID, map[string]any{"is_superuser": true})
	})
	admin.IsSuperuser = true

	owner, _ := f.owner(t, "owner@example.com")
	f.do(t, func(uow *database.UnitOfWork) error {
		return uow.AuditLogs().Create(ctx, &models.AuditLog{AdminID: owner.ID, ActionType: events.EventBotCreated, TargetEntity: "bot"})
	})

	t.Run("RegularUserDenied", func(t *testing.T) {
		_, err := svc.ListWorkspaces(ctx, owner, repository.Page{})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		_, err = svc.ListAuditLogs(ctx, owner, AuditLogFilter{}, repository.Page{})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
		assert.ErrorIs(t, svc.BlockUser(ctx, owner, admin.ID), domain.ErrPermissionDenied)
	})

	t.Run("Listings", func(t *testing.T) {
		workspaces, err := svc.ListWorkspaces(ctx, admin, repository.Page{})
		require.NoError(t, err)
		assert.Len(t, workspaces, 1)

		logs, err := svc.ListAuditLogs(ctx, admin, AuditLogFilter{AdminID: owner.ID}, repository.Page{})
		require.NoError(t, err)
		assert.Len(t, logs, 1)

		logs, err = svc.ListAuditLogs(ctx, admin, AuditLogFilter{ActionType: events.EventBotDeleted}, repository.Page{})
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("BlockAndUnblock", func(t *testing.T) {
		require.NoError(t, svc.BlockUser(ctx, admin, owner.ID))
		assert.Equal(t, events.EventUserBlocked, f.events.types()[len(f.events.types())-1])

		var stored models.User
		require.NoError(t, f.db.Gorm().First(&stored, "id = ?", owner.ID).Error)
		assert.False(t, stored.IsActive)

		require.NoError(t, svc.UnblockUser(ctx, admin, owner.ID))
		require.NoError(t, f.db.Gorm().First(&stored, "id = ?", owner.ID).Error)
		assert.True(t, stored.IsActive)

		assert.ErrorIs(t, svc.BlockUser(ctx, admin, uuid.New()), domain.ErrNotFound)
		assert.ErrorIs(t, svc.BlockUser(ctx, admin, admin.ID), domain.ErrValidation)
	})

	t.Run("BlockedSuperuserLosesAccess", func(t *testing.T) {
		blocked := *admin
		blocked.IsActive = false
		_, err := svc.ListWorkspaces(ctx, &blocked, repository.Page{})
		assert.ErrorIs(t, err, domain.ErrAccessForbidden)
	})
}
