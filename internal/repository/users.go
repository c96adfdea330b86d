package repository

import (
	"context"
	"strings"

	"botdesk/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	*Repository[models.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Repository: NewRepository[models.User](db)}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.GetSingle(ctx, Filter{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.GetSingle(ctx, Filter{"username": strings.TrimSpace(username)})
}
