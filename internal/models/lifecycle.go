package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle holds the timestamp and soft-delete columns shared by every entity.
// Rows are never physically removed by application code, only flagged.
type Lifecycle struct {
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
	IsDeleted bool       `gorm:"not null;index" json:"-"`
	DeletedAt *time.Time `json:"-"`
}

// MarkDeleted flags the record as deleted at now.
func (l *Lifecycle) MarkDeleted(now time.Time) {
	l.IsDeleted = true
	l.DeletedAt = &now
}

// Restore clears the soft-delete flags.
func (l *Lifecycle) Restore() {
	l.IsDeleted = false
	l.DeletedAt = nil
}

// Base is the primary key plus lifecycle columns.
type Base struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Lifecycle
}

// BeforeCreate assigns a time-ordered id when the caller did not set one.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}
