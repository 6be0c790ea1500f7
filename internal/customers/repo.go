package customers

import (
	"context"
	"errors"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	Save(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	// FindByPhoneOrCPF returns nil when neither matches. Empty values are ignored.
	FindByPhoneOrCPF(ctx context.Context, phone, cpf string) (*models.Customer, error)
	List(ctx context.Context, params listParams) ([]models.Customer, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type listParams struct {
	Pattern string
	Active  *bool
	Cursor  *pagination.Cursor
	Limit   int
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

func (r *repositoryImpl) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repositoryImpl) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) FindByPhoneOrCPF(ctx context.Context, phone, cpf string) (*models.Customer, error) {
	if phone == "" && cpf == "" {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	switch {
	case phone != "" && cpf != "":
		query = query.Where("phone = ? OR cpf = ?", phone, cpf)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		query = query.Where("cpf = ?", cpf)
	}

	var customer models.Customer
	err := query.Order("active DESC, created_at ASC").Take(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if params.Pattern != "" {
		query = query.Where(`search_key LIKE ? ESCAPE '\'`, params.Pattern)
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}
	var rows []models.Customer
	if err := query.Order("created_at DESC, id DESC").Limit(params.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		UpdateColumn("active", false)
	return result.RowsAffected > 0, result.Error
}
