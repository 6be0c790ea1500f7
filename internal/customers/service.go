package customers

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/cartelabolao/cartela-admin/pkg/textnorm"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 13
	cpfDigits      = 11
)

type Service interface {
	List(ctx context.Context, params ListParams) (*types.Page[CustomerDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	Create(ctx context.Context, input CustomerInput) (*CustomerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// FindOrCreate dedups by phone or CPF inside tx. The bool reports a new row.
	FindOrCreate(ctx context.Context, tx *gorm.DB, input CustomerInput) (*models.Customer, bool, error)
}

type ListParams struct {
	Query  string
	Active *bool
	Limit  int
	Cursor string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*types.Page[CustomerDTO], error) {
	query := listParams{
		Pattern: textnorm.LikePattern(params.Query),
		Active:  params.Active,
		Limit:   pagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	page, cursor := pagination.Trim(rows, params.Limit, func(c models.Customer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	items := make([]CustomerDTO, 0, len(page))
	for i := range page {
		items = append(items, *FromModel(&page[i]))
	}
	return &types.Page[CustomerDTO]{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(customer), nil
}

func (s *service) Create(ctx context.Context, input CustomerInput) (*CustomerDTO, error) {
	normalized, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByPhoneOrCPF(ctx, normalized.Phone, deref(normalized.CPF))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already registered").
			WithDetail("customer_id", existing.ID.String())
	}

	customer := newCustomer(normalized)
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return FromModel(customer), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	next := CustomerInput{Name: customer.Name, Phone: customer.Phone, Email: customer.Email, CPF: customer.CPF}
	if input.Name != nil {
		next.Name = *input.Name
	}
	if input.Phone != nil {
		next.Phone = *input.Phone
	}
	if input.Email != nil {
		next.Email = input.Email
	}
	if input.CPF != nil {
		next.CPF = input.CPF
	}
	normalized, err := normalizeInput(next)
	if err != nil {
		return nil, err
	}

	customer.Name = normalized.Name
	customer.Phone = normalized.Phone
	customer.Email = normalized.Email
	customer.CPF = normalized.CPF
	customer.SearchKey = textnorm.SearchKey(normalized.Name, normalized.Phone)
	if input.Active != nil {
		customer.Active = *input.Active
	}
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return FromModel(customer), nil
}

// Delete deactivates the customer; sales keep pointing at the row.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	found, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate customer")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return nil
}

func (s *service) FindOrCreate(ctx context.Context, tx *gorm.DB, input CustomerInput) (*models.Customer, bool, error) {
	normalized, err := normalizeInput(input)
	if err != nil {
		return nil, false, err
	}
	repo := s.repo.WithTx(tx)
	existing, err := repo.FindByPhoneOrCPF(ctx, normalized.Phone, deref(normalized.CPF))
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	if existing != nil {
		return existing, false, nil
	}
	customer := newCustomer(normalized)
	if err := repo.Create(ctx, customer); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register customer")
	}
	return customer, true, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	customer, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func newCustomer(in CustomerInput) *models.Customer {
	return &models.Customer{
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		CPF:       in.CPF,
		Active:    true,
		SearchKey: textnorm.SearchKey(in.Name, in.Phone),
	}
}

// normalizeInput trims the name, reduces phone and CPF to digits and
// lowercases the email. Blank optional fields become nil.
func normalizeInput(in CustomerInput) (CustomerInput, error) {
	details := map[string]any{}
	out := CustomerInput{
		Name:  strings.Join(strings.Fields(in.Name), " "),
		Phone: textnorm.Digits(in.Phone),
	}
	if out.Name == "" {
		details["name"] = "is required"
	}
	if n := len(out.Phone); n < minPhoneDigits || n > maxPhoneDigits {
		details["phone"] = "must have between 10 and 13 digits"
	}
	if in.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*in.Email)); email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				details["email"] = "must be a valid email"
			}
			out.Email = &email
		}
	}
	if in.CPF != nil {
		if cpf := textnorm.Digits(*in.CPF); cpf != "" {
			if len(cpf) != cpfDigits {
				details["cpf"] = "must have 11 digits"
			}
			out.CPF = &cpf
		}
	}
	if len(details) > 0 {
		return CustomerInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer").WithDetails(details)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
