package editions

import (
	"context"
	"errors"

	"github.com/cartelabolao/cartela-admin/pkg/db"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	numberConstraint       = "number"
	singleActiveConstraint = "editions_single_active_idx"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the edition lifecycle.
type Service interface {
	List(ctx context.Context, status *enums.EditionStatus) ([]EditionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*EditionDTO, error)
	GetActive(ctx context.Context) (*EditionDTO, error)
	Create(ctx context.Context, input CreateEditionInput) (*EditionDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEditionInput) (*EditionDTO, error)
	Activate(ctx context.Context, id uuid.UUID) (*EditionDTO, error)
	Finalize(ctx context.Context, id uuid.UUID) (*EditionDTO, error)
	SetSalesPaused(ctx context.Context, id uuid.UUID, paused bool) (*EditionDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "editions repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, status *enums.EditionStatus) ([]EditionDTO, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *status)
	}
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list editions")
	}
	return fromModels(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*EditionDTO, error) {
	edition, err := s.load(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	return FromModel(edition), nil
}

func (s *service) GetActive(ctx context.Context) (*EditionDTO, error) {
	edition, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active edition")
	}
	if edition == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active edition")
	}
	return FromModel(edition), nil
}

func (s *service) Create(ctx context.Context, input CreateEditionInput) (*EditionDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var created *models.Edition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		max, err := repo.MaxNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load edition number")
		}
		edition := &models.Edition{
			Number:              max + 1,
			DrawDate:            input.DrawDate.UTC(),
			IndividualCardPrice: input.IndividualCardPrice,
			BolaoQuotaPrice:     input.BolaoQuotaPrice,
			QuotasPerGroup:      input.QuotasPerGroup,
			CardsPerGroup:       input.CardsPerGroup,
			Status:              enums.EditionStatusDraft,
		}
		if err := repo.Create(ctx, edition); err != nil {
			if db.IsUniqueViolation(err, numberConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "edition number already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create edition")
		}
		created = edition
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateEditionInput) (*EditionDTO, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}
	edition, err := s.load(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if edition.Status == enums.EditionStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "finalized editions are read-only")
	}

	if input.DrawDate != nil {
		edition.DrawDate = input.DrawDate.UTC()
	}
	if input.IndividualCardPrice != nil {
		edition.IndividualCardPrice = *input.IndividualCardPrice
	}
	if input.BolaoQuotaPrice != nil {
		edition.BolaoQuotaPrice = *input.BolaoQuotaPrice
	}
	if input.QuotasPerGroup != nil {
		edition.QuotasPerGroup = *input.QuotasPerGroup
	}
	if input.CardsPerGroup != nil {
		edition.CardsPerGroup = *input.CardsPerGroup
	}
	if err := s.repo.Save(ctx, edition); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update edition")
	}
	return FromModel(edition), nil
}

// Activate moves a draft edition to active. Only one edition may be active.
func (s *service) Activate(ctx context.Context, id uuid.UUID) (*EditionDTO, error) {
	var out *models.Edition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		edition, err := s.load(ctx, repo, id, true)
		if err != nil {
			return err
		}
		if !edition.Status.CanTransitionTo(enums.EditionStatusActive) {
			return transitionError(edition.Status, enums.EditionStatusActive)
		}
		active, err := repo.FindActive(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active edition")
		}
		if active != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "another edition is already active").
				WithDetail("active_edition_id", active.ID.String()).
				WithDetail("active_edition_number", active.Number)
		}
		edition.Status = enums.EditionStatusActive
		if err := repo.Save(ctx, edition); err != nil {
			if db.IsUniqueViolation(err, singleActiveConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "another edition is already active")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate edition")
		}
		out = edition
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

func (s *service) Finalize(ctx context.Context, id uuid.UUID) (*EditionDTO, error) {
	var out *models.Edition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		edition, err := s.load(ctx, repo, id, true)
		if err != nil {
			return err
		}
		if !edition.Status.CanTransitionTo(enums.EditionStatusFinalized) {
			return transitionError(edition.Status, enums.EditionStatusFinalized)
		}
		edition.Status = enums.EditionStatusFinalized
		if err := repo.Save(ctx, edition); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize edition")
		}
		out = edition
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

func (s *service) SetSalesPaused(ctx context.Context, id uuid.UUID, paused bool) (*EditionDTO, error) {
	edition, err := s.load(ctx, s.repo, id, false)
	if err != nil {
		return nil, err
	}
	if edition.Status == enums.EditionStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "finalized editions are read-only")
	}
	edition.SalesPaused = paused
	if err := s.repo.Save(ctx, edition); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sales pause")
	}
	return FromModel(edition), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, repo, id, true); err != nil {
			return err
		}
		count, err := repo.CountSales(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count edition sales")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "edition has sales").WithDetail("sales", count)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete edition")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID, lock bool) (*models.Edition, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "edition id required")
	}
	var (
		edition *models.Edition
		err     error
	)
	if lock {
		edition, err = repo.FindByIDForUpdate(ctx, id)
	} else {
		edition, err = repo.FindByID(ctx, id)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load edition")
	}
	return edition, nil
}

func transitionError(from, to enums.EditionStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move edition from %s to %s", from, to).
		WithDetail("from", from).
		WithDetail("to", to)
}

func validateCreate(input CreateEditionInput) error {
	details := map[string]any{}
	if input.DrawDate.IsZero() {
		details["draw_date"] = "required"
	}
	if input.IndividualCardPrice < 0 {
		details["individual_card_price"] = "must not be negative"
	}
	if input.BolaoQuotaPrice < 0 {
		details["bolao_quota_price"] = "must not be negative"
	}
	if input.QuotasPerGroup <= 0 {
		details["quotas_per_group"] = "must be greater than zero"
	}
	if input.CardsPerGroup <= 0 {
		details["cards_per_group"] = "must be greater than zero"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid edition").WithDetails(details)
	}
	return nil
}

func validateUpdate(input UpdateEditionInput) error {
	details := map[string]any{}
	if input.IndividualCardPrice != nil && *input.IndividualCardPrice < 0 {
		details["individual_card_price"] = "must not be negative"
	}
	if input.BolaoQuotaPrice != nil && *input.BolaoQuotaPrice < 0 {
		details["bolao_quota_price"] = "must not be negative"
	}
	if input.QuotasPerGroup != nil && *input.QuotasPerGroup <= 0 {
		details["quotas_per_group"] = "must be greater than zero"
	}
	if input.CardsPerGroup != nil && *input.CardsPerGroup <= 0 {
		details["cards_per_group"] = "must be greater than zero"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid edition").WithDetails(details)
	}
	return nil
}
