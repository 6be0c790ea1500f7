package bolao

import (
	"context"
	"errors"
	"time"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository covers groups, quotas and card uploads. Lookups that return a
// pointer yield nil when the row is missing.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LockEdition(ctx context.Context, id uuid.UUID) (*models.Edition, error)
	FindEdition(ctx context.Context, id uuid.UUID) (*models.Edition, error)
	ActiveEdition(ctx context.Context) (*models.Edition, error)
	FindSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)

	QuotaForSale(ctx context.Context, saleID uuid.UUID) (*models.BolaoQuota, error)
	FirstOpenGroup(ctx context.Context, editionID uuid.UUID) (*models.BolaoGroup, error)
	MaxGroupNumber(ctx context.Context, editionID uuid.UUID) (int, error)
	CreateGroup(ctx context.Context, group *models.BolaoGroup) error
	SaveGroup(ctx context.Context, group *models.BolaoGroup) error
	FindGroup(ctx context.Context, id uuid.UUID) (*models.BolaoGroup, error)
	ListGroups(ctx context.Context, editionID *uuid.UUID) ([]models.BolaoGroup, error)
	QuotaNumbers(ctx context.Context, groupID uuid.UUID) ([]int, error)
	CreateQuota(ctx context.Context, quota *models.BolaoQuota) error
	CountQuotas(ctx context.Context, groupID uuid.UUID) (int64, error)
	GroupQuotas(ctx context.Context, groupID uuid.UUID) ([]models.BolaoQuota, error)

	PaidBolaoSales(ctx context.Context, editionID uuid.UUID) ([]models.Sale, error)
	AllocatedSaleIDs(ctx context.Context, editionID uuid.UUID) ([]uuid.UUID, error)

	ReadyGroups(ctx context.Context) ([]models.BolaoGroup, error)
	LatestUpload(ctx context.Context, groupID uuid.UUID, uploadType enums.UploadType) (*models.CardUpload, error)
	ListUploads(ctx context.Context, groupID uuid.UUID) ([]models.CardUpload, error)
	CreateUpload(ctx context.Context, upload *models.CardUpload) error
	MarkGroupSent(ctx context.Context, groupID uuid.UUID, at time.Time) error
	MarkQuotasNotified(ctx context.Context, groupID uuid.UUID, at time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) LockEdition(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&edition, "id = ?", id).Error
	return nilIfMissing(&edition, err)
}

func (r *repositoryImpl) FindEdition(ctx context.Context, id uuid.UUID) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).First(&edition, "id = ?", id).Error
	return nilIfMissing(&edition, err)
}

func (r *repositoryImpl) ActiveEdition(ctx context.Context) (*models.Edition, error) {
	var edition models.Edition
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.EditionStatusActive).
		Order("number DESC").
		First(&edition).Error
	return nilIfMissing(&edition, err)
}

func (r *repositoryImpl) FindSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error
	return nilIfMissing(&sale, err)
}

func (r *repositoryImpl) QuotaForSale(ctx context.Context, saleID uuid.UUID) (*models.BolaoQuota, error) {
	var quota models.BolaoQuota
	err := r.db.WithContext(ctx).First(&quota, "sale_id = ?", saleID).Error
	return nilIfMissing(&quota, err)
}

func (r *repositoryImpl) FirstOpenGroup(ctx context.Context, editionID uuid.UUID) (*models.BolaoGroup, error) {
	var group models.BolaoGroup
	err := r.db.WithContext(ctx).
		Where("edition_id = ? AND is_complete = ?", editionID, false).
		Order("group_number ASC").
		First(&group).Error
	return nilIfMissing(&group, err)
}

func (r *repositoryImpl) MaxGroupNumber(ctx context.Context, editionID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.BolaoGroup{}).
		Select("COALESCE(MAX(group_number), 0)").
		Where("edition_id = ?", editionID).
		Scan(&max).Error
	return max, err
}

func (r *repositoryImpl) CreateGroup(ctx context.Context, group *models.BolaoGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repositoryImpl) SaveGroup(ctx context.Context, group *models.BolaoGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *repositoryImpl) FindGroup(ctx context.Context, id uuid.UUID) (*models.BolaoGroup, error) {
	var group models.BolaoGroup
	err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error
	return nilIfMissing(&group, err)
}

func (r *repositoryImpl) ListGroups(ctx context.Context, editionID *uuid.UUID) ([]models.BolaoGroup, error) {
	query := r.db.WithContext(ctx).Model(&models.BolaoGroup{})
	if editionID != nil {
		query = query.Where("edition_id = ?", *editionID)
	}
	var groups []models.BolaoGroup
	err := query.Order("created_at DESC, group_number ASC").Find(&groups).Error
	return groups, err
}

// QuotaNumbers flattens every number held in the group. The column is a JSON
// list so the max is taken in Go on both dialects.
func (r *repositoryImpl) QuotaNumbers(ctx context.Context, groupID uuid.UUID) ([]int, error) {
	var quotas []models.BolaoQuota
	if err := r.db.WithContext(ctx).
		Select("quota_numbers").
		Where("group_id = ?", groupID).
		Find(&quotas).Error; err != nil {
		return nil, err
	}
	var numbers []int
	for _, q := range quotas {
		numbers = append(numbers, q.QuotaNumbers...)
	}
	return numbers, nil
}

func (r *repositoryImpl) CreateQuota(ctx context.Context, quota *models.BolaoQuota) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quota).Error
}

func (r *repositoryImpl) CountQuotas(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BolaoQuota{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

func (r *repositoryImpl) GroupQuotas(ctx context.Context, groupID uuid.UUID) ([]models.BolaoQuota, error) {
	var quotas []models.BolaoQuota
	err := r.db.WithContext(ctx).
		Preload("Sale").
		Preload("Sale.Customer").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&quotas).Error
	return quotas, err
}

func (r *repositoryImpl) PaidBolaoSales(ctx context.Context, editionID uuid.UUID) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.db.WithContext(ctx).
		Where("edition_id = ? AND sale_type = ? AND payment_status = ?", editionID, enums.SaleTypeBolaoQuota, enums.PaymentStatusPaid).
		Order("paid_at ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) AllocatedSaleIDs(ctx context.Context, editionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.BolaoQuota{}).
		Joins("JOIN bolao_groups ON bolao_groups.id = bolao_quotas.group_id").
		Where("bolao_groups.edition_id = ?", editionID).
		Pluck("bolao_quotas.sale_id", &ids).Error
	return ids, err
}

func (r *repositoryImpl) ReadyGroups(ctx context.Context) ([]models.BolaoGroup, error) {
	var groups []models.BolaoGroup
	err := r.db.WithContext(ctx).
		Where("is_complete = ? AND cards_uploaded = ? AND cards_sent = ?", true, true, false).
		Order("created_at ASC, group_number ASC").
		Find(&groups).Error
	return groups, err
}

func (r *repositoryImpl) LatestUpload(ctx context.Context, groupID uuid.UUID, uploadType enums.UploadType) (*models.CardUpload, error) {
	var upload models.CardUpload
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND upload_type = ?", groupID, uploadType).
		Order("created_at DESC").
		First(&upload).Error
	return nilIfMissing(&upload, err)
}

func (r *repositoryImpl) ListUploads(ctx context.Context, groupID uuid.UUID) ([]models.CardUpload, error) {
	var uploads []models.CardUpload
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&uploads).Error
	return uploads, err
}

func (r *repositoryImpl) CreateUpload(ctx context.Context, upload *models.CardUpload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

func (r *repositoryImpl) MarkGroupSent(ctx context.Context, groupID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.BolaoGroup{}).
		Where("id = ?", groupID).
		Updates(map[string]any{"cards_sent": true, "cards_sent_at": at, "updated_at": at}).Error
}

func (r *repositoryImpl) MarkQuotasNotified(ctx context.Context, groupID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.BolaoQuota{}).
		Where("group_id = ?", groupID).
		Update("notified_at", at).Error
}

func nilIfMissing[T any](row *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}
