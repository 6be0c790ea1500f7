package notifications

import (
	"context"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists the operator notification feed.
type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, error)
	// MarkRead stamps read_at once; found is false when the id is unknown.
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (found bool, err error)
	MarkAllRead(ctx context.Context, at time.Time) (int64, error)
	CountUnread(ctx context.Context) (int64, error)
	// DeleteReadOlderThan purges read notifications created before cutoff.
	// Unread entries are kept regardless of age.
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type listNotificationsParams struct {
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) feed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{})
}

func unread(db *gorm.DB) *gorm.DB {
	return db.Where("read_at IS NULL")
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, error) {
	query := r.feed(ctx)
	if params.UnreadOnly {
		query = query.Scopes(unread)
	}
	if c := params.Cursor; c != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", c.CreatedAt, c.CreatedAt, c.ID)
	}
	var rows []models.Notification
	err := query.Order("created_at DESC").Order("id DESC").Limit(params.Limit).Find(&rows).Error
	return rows, err
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	var row models.Notification
	err := r.feed(ctx).Select("id", "read_at").Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil || row.ID == uuid.Nil {
		return false, err
	}
	if row.ReadAt != nil {
		return true, nil
	}
	err = r.feed(ctx).Where("id = ?", id).Scopes(unread).UpdateColumn("read_at", at).Error
	return true, err
}

func (r *repository) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	res := r.feed(ctx).Scopes(unread).UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *repository) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	err := r.feed(ctx).Scopes(unread).Count(&n).Error
	return n, err
}

func (r *repository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND created_at < ?", cutoff.UTC()).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
