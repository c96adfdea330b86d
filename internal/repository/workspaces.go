package repository

import (
	"context"

	"botdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkspaceRepository struct {
	*Repository[models.Workspace]
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{Repository: NewRepository[models.Workspace](db)}
}

type WorkspaceMemberRepository struct {
	*Repository[models.WorkspaceMember]
}

func NewWorkspaceMemberRepository(db *gorm.DB) *WorkspaceMemberRepository {
	return &WorkspaceMemberRepository{Repository: NewRepository[models.WorkspaceMember](db)}
}

func (r *WorkspaceMemberRepository) GetMembership(ctx context.Context, userID, workspaceID uuid.UUID) (*models.WorkspaceMember, error) {
	return r.GetSingle(ctx, Filter{"user_id": userID, "workspace_id": workspaceID})
}

// GetRole returns the member's role, or nil when userID is not a member.
func (r *WorkspaceMemberRepository) GetRole(ctx context.Context, userID, workspaceID uuid.UUID) (*models.WorkspaceRole, error) {
	m, err := r.GetMembership(ctx, userID, workspaceID)
	if err != nil || m == nil {
		return nil, err
	}
	return &m.Role, nil
}
