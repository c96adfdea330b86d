package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"botdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned by write operations that matched no live row.
// Reads return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// Filter is an equality filter keyed by column name.
type Filter map[string]any

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = models.DefaultPageSize
	}
	if p.Limit > models.MaxPageSize {
		p.Limit = models.MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Repository is the generic soft-delete aware data access object for T.
// Every query excludes rows flagged as deleted.
type Repository[T any] struct {
	db *gorm.DB
}

func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

func (r *Repository[T]) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Where("is_deleted = ?", false)
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create %T: %w", entity, err)
	}
	return nil
}

// GetSingle returns the first live row matching filter, or nil when none does.
func (r *Repository[T]) GetSingle(ctx context.Context, filter Filter) (*T, error) {
	var entity T
	err := r.live(ctx).Where(map[string]any(filter)).Take(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %T: %w", entity, err)
	}
	return &entity, nil
}

func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.GetSingle(ctx, Filter{"id": id})
}

// List returns live rows matching filter, newest first.
func (r *Repository[T]) List(ctx context.Context, filter Filter, page Page) ([]T, error) {
	page = page.normalize()
	var out []T
	q := r.live(ctx)
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %T: %w", out, err)
	}
	return out, nil
}

func (r *Repository[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	var n int64
	q := r.live(ctx)
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %T: %w", new(T), err)
	}
	return n, nil
}

// Update writes the given columns of a live row.
func (r *Repository[T]) Update(ctx context.Context, id uuid.UUID, values map[string]any) error {
	values["updated_at"] = time.Now().UTC()
	res := r.live(ctx).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update %T: %w", new(T), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flags the row as deleted; it stays in the table.
func (r *Repository[T]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return r.Update(ctx, id, map[string]any{
		"is_deleted": true,
		"deleted_at": now,
	})
}
