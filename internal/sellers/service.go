package sellers

import (
	"context"
	"errors"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/textnorm"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxRate = decimal.NewFromInt(100)

// Service manages promoters and resellers. Every call is scoped to one kind.
type Service interface {
	List(ctx context.Context, kind enums.SellerKind, active *bool) ([]SellerDTO, error)
	Get(ctx context.Context, kind enums.SellerKind, id uuid.UUID) (*SellerDTO, error)
	Create(ctx context.Context, kind enums.SellerKind, input SellerInput) (*SellerDTO, error)
	Update(ctx context.Context, kind enums.SellerKind, id uuid.UUID, input UpdateSellerInput) (*SellerDTO, error)
	Delete(ctx context.Context, kind enums.SellerKind, id uuid.UUID) error
	// Resolve checks that a non-direct seller variant points at an active
	// seller of the matching kind.
	Resolve(ctx context.Context, tx *gorm.DB, seller types.Seller) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sellers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, kind enums.SellerKind, active *bool) ([]SellerDTO, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, kind, active)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sellers")
	}
	out := make([]SellerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, kind enums.SellerKind, id uuid.UUID) (*SellerDTO, error) {
	seller, err := s.load(ctx, s.repo, kind, id)
	if err != nil {
		return nil, err
	}
	return FromModel(seller), nil
}

func (s *service) Create(ctx context.Context, kind enums.SellerKind, input SellerInput) (*SellerDTO, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	normalized, err := normalize(input)
	if err != nil {
		return nil, err
	}
	seller := &models.Seller{
		Kind:           kind,
		Name:           normalized.Name,
		Phone:          normalized.Phone,
		Email:          normalized.Email,
		CPF:            normalized.CPF,
		CommissionRate: normalized.CommissionRate,
		Active:         true,
	}
	if err := s.repo.Create(ctx, seller); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create seller")
	}
	return FromModel(seller), nil
}

func (s *service) Update(ctx context.Context, kind enums.SellerKind, id uuid.UUID, input UpdateSellerInput) (*SellerDTO, error) {
	seller, err := s.load(ctx, s.repo, kind, id)
	if err != nil {
		return nil, err
	}

	next := SellerInput{
		Name:           seller.Name,
		Phone:          seller.Phone,
		Email:          seller.Email,
		CPF:            seller.CPF,
		CommissionRate: seller.CommissionRate,
	}
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
	if input.CommissionRate != nil {
		next.CommissionRate = input.CommissionRate
	}
	if input.ClearCommissionRate {
		next.CommissionRate = nil
	}
	normalized, err := normalize(next)
	if err != nil {
		return nil, err
	}

	seller.Name = normalized.Name
	seller.Phone = normalized.Phone
	seller.Email = normalized.Email
	seller.CPF = normalized.CPF
	seller.CommissionRate = normalized.CommissionRate
	if input.Active != nil {
		seller.Active = *input.Active
	}
	if err := s.repo.Save(ctx, seller); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update seller")
	}
	return FromModel(seller), nil
}

func (s *service) Delete(ctx context.Context, kind enums.SellerKind, id uuid.UUID) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	found, err := s.repo.Deactivate(ctx, kind, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate seller")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
	}
	return nil
}

func (s *service) Resolve(ctx context.Context, tx *gorm.DB, variant types.Seller) error {
	kind, ok := variant.Kind()
	if !ok {
		return nil
	}
	id, _ := variant.ID()
	seller, err := s.load(ctx, s.repo.WithTx(tx), kind, id)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s %s not found", kind, id).
			WithDetail("seller", "must reference an existing "+string(kind))
	}
	if err != nil {
		return err
	}
	if !seller.Active {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s %s is inactive", kind, id).
			WithDetail("seller", "inactive")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, kind enums.SellerKind, id uuid.UUID) (*models.Seller, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	seller, err := repo.FindByID(ctx, kind, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	return seller, nil
}

func checkKind(kind enums.SellerKind) error {
	if !kind.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid seller kind %q", kind)
	}
	return nil
}

func normalize(in SellerInput) (SellerInput, error) {
	details := map[string]any{}
	out := SellerInput{
		Name:  strings.Join(strings.Fields(in.Name), " "),
		Phone: textnorm.Digits(in.Phone),
	}
	if out.Name == "" {
		details["name"] = "is required"
	}
	if out.Phone == "" {
		details["phone"] = "is required"
	}
	if in.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*in.Email)); email != "" {
			out.Email = &email
		}
	}
	if in.CPF != nil {
		if cpf := textnorm.Digits(*in.CPF); cpf != "" {
			if len(cpf) != 11 {
				details["cpf"] = "must have 11 digits"
			}
			out.CPF = &cpf
		}
	}
	if in.CommissionRate != nil {
		rate := in.CommissionRate.Round(2)
		if rate.IsNegative() || rate.GreaterThan(maxRate) {
			details["commission_rate"] = "must be between 0 and 100"
		}
		out.CommissionRate = &rate
	}
	if len(details) > 0 {
		return SellerInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller").WithDetails(details)
	}
	return out, nil
}
