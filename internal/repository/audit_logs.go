package repository

import (
	"botdesk/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	*Repository[models.AuditLog]
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{Repository: NewRepository[models.AuditLog](db)}
}
