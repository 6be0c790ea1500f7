package individualcards

import (
	"context"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.IndividualCard, error)
	List(ctx context.Context, params listParams) ([]models.IndividualCard, error)
	Save(ctx context.Context, card *models.IndividualCard) error
	EditionNumber(ctx context.Context, editionID uuid.UUID) (int, error)
}

type listParams struct {
	EditionID *uuid.UUID
	Sent      *bool
	Cursor    *pagination.Cursor
	Limit     int
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

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.IndividualCard, error) {
	var card models.IndividualCard
	err := r.db.WithContext(ctx).
		Preload("Sale").
		Preload("Sale.Customer").
		First(&card, "individual_cards.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.IndividualCard, error) {
	query := r.db.WithContext(ctx).
		Model(&models.IndividualCard{}).
		Preload("Sale").
		Preload("Sale.Customer")
	if params.EditionID != nil {
		query = query.Where("individual_cards.sale_id IN (?)",
			r.db.Model(&models.Sale{}).Select("id").Where("edition_id = ?", *params.EditionID))
	}
	if params.Sent != nil {
		query = query.Where("individual_cards.card_sent = ?", *params.Sent)
	}
	if params.Cursor != nil {
		query = query.Where("(individual_cards.created_at, individual_cards.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.IndividualCard
	err := query.
		Order("individual_cards.created_at DESC, individual_cards.id DESC").
		Limit(params.Limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) Save(ctx context.Context, card *models.IndividualCard) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(card).Error
}

func (r *repositoryImpl) EditionNumber(ctx context.Context, editionID uuid.UUID) (int, error) {
	var number int
	err := r.db.WithContext(ctx).
		Model(&models.Edition{}).
		Select("number").
		Where("id = ?", editionID).
		Scan(&number).Error
	return number, err
}
