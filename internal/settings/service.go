package settings

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service loads and replaces the settings document.
type Service interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, next Settings) (*Settings, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*Settings, error) {
	row, err := s.repo.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	out := Defaults()
	if row == nil {
		return &out, nil
	}
	// missing keys keep their defaults
	if err := json.Unmarshal([]byte(row.Payload), &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode settings")
	}
	return &out, nil
}

func (s *service) Update(ctx context.Context, next Settings) (*Settings, error) {
	if err := validateRates(next.Commission); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode settings")
	}
	if err := s.repo.Save(ctx, string(payload)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
	}
	return &next, nil
}

var hundred = decimal.NewFromInt(100)

func validateRates(rates CommissionRates) error {
	details := map[string]any{}
	for field, rate := range map[string]decimal.Decimal{"promoter": rates.Promoter, "reseller": rates.Reseller} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			details["commission."+field] = "must be between 0 and 100"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid commission rates").WithDetails(details)
	}
	return nil
}
