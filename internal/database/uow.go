package database

import (
	"context"
	"errors"
	"fmt"

	"botdesk/internal/repository"

	"gorm.io/gorm"
)

var errUnitClosed = errors.New("unit of work already closed")

// UnitOfWork binds one transaction to a lazily built, cached set of
// repositories. It is not safe for concurrent use; each request gets its own.
type UnitOfWork struct {
	tx   *gorm.DB
	done bool

	users         *repository.UserRepository
	workspaces    *repository.WorkspaceRepository
	members       *repository.WorkspaceMemberRepository
	bots          *repository.BotRepository
	botRoles      *repository.AdminBotRoleRepository
	telegramUsers *repository.TelegramUserRepository
	chats         *repository.ChatRepository
	messages      *repository.MessageRepository
	broadcasts    *repository.BroadcastRepository
	deliveries    *repository.BroadcastDeliveryRepository
	auditLogs     *repository.AuditLogRepository
}

// Begin opens a transaction. The caller must Commit or Rollback.
func (db *DB) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx := db.gorm.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Do runs fn inside a new unit of work. Changes persist only if fn calls
// Commit; an error, a panic or a missing Commit rolls everything back.
func (db *DB) Do(ctx context.Context, fn func(uow *UnitOfWork) error) (err error) {
	uow, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
		if rbErr := uow.Rollback(); rbErr != nil && err == nil {
			err = rbErr
		}
	}()
	return fn(uow)
}

func (u *UnitOfWork) Commit() error {
	if u.done {
		return errUnitClosed
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback is a no-op once the unit has been committed or rolled back.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *UnitOfWork) Committed() bool {
	return u.done
}

func (u *UnitOfWork) Users() *repository.UserRepository {
	if u.users == nil {
		u.users = repository.NewUserRepository(u.tx)
	}
	return u.users
}

func (u *UnitOfWork) Workspaces() *repository.WorkspaceRepository {
	if u.workspaces == nil {
		u.workspaces = repository.NewWorkspaceRepository(u.tx)
	}
	return u.workspaces
}

func (u *UnitOfWork) Members() *repository.WorkspaceMemberRepository {
	if u.members == nil {
		u.members = repository.NewWorkspaceMemberRepository(u.tx)
	}
	return u.members
}

func (u *UnitOfWork) Bots() *repository.BotRepository {
	if u.bots == nil {
		u.bots = repository.NewBotRepository(u.tx)
	}
	return u.bots
}

func (u *UnitOfWork) BotRoles() *repository.AdminBotRoleRepository {
	if u.botRoles == nil {
		u.botRoles = repository.NewAdminBotRoleRepository(u.tx)
	}
	return u.botRoles
}

func (u *UnitOfWork) TelegramUsers() *repository.TelegramUserRepository {
	if u.telegramUsers == nil {
		u.telegramUsers = repository.NewTelegramUserRepository(u.tx)
	}
	return u.telegramUsers
}

func (u *UnitOfWork) Chats() *repository.ChatRepository {
	if u.chats == nil {
		u.chats = repository.NewChatRepository(u.tx)
	}
	return u.chats
}

func (u *UnitOfWork) Messages() *repository.MessageRepository {
	if u.messages == nil {
		u.messages = repository.NewMessageRepository(u.tx)
	}
	return u.messages
}

func (u *UnitOfWork) Broadcasts() *repository.BroadcastRepository {
	if u.broadcasts == nil {
		u.broadcasts = repository.NewBroadcastRepository(u.tx)
	}
	return u.broadcasts
}

func (u *UnitOfWork) Deliveries() *repository.BroadcastDeliveryRepository {
	if u.deliveries == nil {
		u.deliveries = repository.NewBroadcastDeliveryRepository(u.tx)
	}
	return u.deliveries
}

func (u *UnitOfWork) AuditLogs() *repository.AuditLogRepository {
	if u.auditLogs == nil {
		u.auditLogs = repository.NewAuditLogRepository(u.tx)
	}
	return u.auditLogs
}
