package bolao

import (
	"context"
	"strings"

	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the admin surface over groups, uploads and the manual
// automation triggers.
type Service interface {
	ListGroups(ctx context.Context, params ListGroupsParams) ([]GroupDTO, error)
	GetGroup(ctx context.Context, id uuid.UUID) (*GroupDetailDTO, error)
	CreateGroup(ctx context.Context, input CreateGroupInput) (*GroupDTO, error)
	ResetSent(ctx context.Context, id uuid.UUID) (*GroupDTO, error)
	ListUploads(ctx context.Context, groupID uuid.UUID) ([]CardUploadDTO, error)
	RegisterUpload(ctx context.Context, input RegisterUploadInput) (*CardUploadDTO, error)
	ProcessPending(ctx context.Context) (ProcessSummary, error)
	SendReady(ctx context.Context) (SendSummary, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	automation *Automation
}

func NewService(repo Repository, tx txRunner, automation *Automation) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bolao repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if automation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "automation required")
	}
	return &service{repo: repo, tx: tx, automation: automation}, nil
}

func (s *service) ListGroups(ctx context.Context, params ListGroupsParams) ([]GroupDTO, error) {
	if params.State != nil && !params.State.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid group state %q", *params.State)
	}
	groups, err := s.repo.ListGroups(ctx, params.EditionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bolão groups")
	}
	out := make([]GroupDTO, 0, len(groups))
	for i := range groups {
		if params.State != nil && groups[i].State() != *params.State {
			continue
		}
		out = append(out, *GroupFromModel(&groups[i]))
	}
	return out, nil
}

func (s *service) GetGroup(ctx context.Context, id uuid.UUID) (*GroupDetailDTO, error) {
	group, err := s.loadGroup(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	quotas, err := s.repo.GroupQuotas(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group quotas")
	}
	detail := &GroupDetailDTO{GroupDTO: *GroupFromModel(group), Quotas: make([]QuotaDTO, 0, len(quotas))}
	for _, q := range quotas {
		detail.Quotas = append(detail.Quotas, quotaFromModel(q))
	}
	return detail, nil
}

func (s *service) CreateGroup(ctx context.Context, input CreateGroupInput) (*GroupDTO, error) {
	if input.EditionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "edition_id required")
	}
	capacity := 0
	if input.MaxQuotas != nil {
		if *input.MaxQuotas < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_quotas must be at least 1")
		}
		capacity = *input.MaxQuotas
	}

	var created *models.BolaoGroup
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		edition, err := repo.LockEdition(ctx, input.EditionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load edition")
		}
		if edition == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "edition not found")
		}
		if edition.Status == enums.EditionStatusFinalized {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "edition is finalized")
		}
		created, err = openGroup(ctx, repo, edition, capacity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bolão group")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GroupFromModel(created), nil
}

// ResetSent clears the sent flag so the automation dispatches the group again.
func (s *service) ResetSent(ctx context.Context, id uuid.UUID) (*GroupDTO, error) {
	group, err := s.loadGroup(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	group.CardsSent = false
	group.CardsSentAt = nil
	if err := s.repo.SaveGroup(ctx, group); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset group sent flag")
	}
	return GroupFromModel(group), nil
}

func (s *service) ListUploads(ctx context.Context, groupID uuid.UUID) ([]CardUploadDTO, error) {
	if _, err := s.loadGroup(ctx, s.repo, groupID); err != nil {
		return nil, err
	}
	uploads, err := s.repo.ListUploads(ctx, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list card uploads")
	}
	out := make([]CardUploadDTO, 0, len(uploads))
	for i := range uploads {
		out = append(out, *UploadFromModel(&uploads[i]))
	}
	return out, nil
}

// RegisterUpload records a stored file. A group_cards upload marks the group's
// artifact as present.
func (s *service) RegisterUpload(ctx context.Context, input RegisterUploadInput) (*CardUploadDTO, error) {
	input.FileName = strings.TrimSpace(input.FileName)
	input.FileURL = strings.TrimSpace(input.FileURL)
	if input.UploadType == "" {
		input.UploadType = enums.UploadTypeOther
	}
	if !input.UploadType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid upload type %q", input.UploadType)
	}
	if input.FileName == "" || input.FileURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name and url required")
	}
	if input.UploadType == enums.UploadTypeGroupCards && input.GroupID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group_id required for group_cards uploads")
	}

	upload := &models.CardUpload{
		GroupID:    input.GroupID,
		FileName:   input.FileName,
		FileURL:    input.FileURL,
		UploadType: input.UploadType,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var group *models.BolaoGroup
		if input.GroupID != nil {
			var err error
			if group, err = s.loadGroup(ctx, repo, *input.GroupID); err != nil {
				return err
			}
		}
		if err := repo.CreateUpload(ctx, upload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register card upload")
		}
		if group == nil || input.UploadType != enums.UploadTypeGroupCards || group.CardsUploaded {
			return nil
		}
		group.CardsUploaded = true
		if err := repo.SaveGroup(ctx, group); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark group cards uploaded")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return UploadFromModel(upload), nil
}

// ProcessPending and SendReady are the manual triggers; they ignore the
// automation toggles in settings.
func (s *service) ProcessPending(ctx context.Context) (ProcessSummary, error) {
	return s.automation.AutoProcessPendingSales(ctx)
}

func (s *service) SendReady(ctx context.Context) (SendSummary, error) {
	return s.automation.CheckAndSendReadyGroups(ctx)
}

func (s *service) loadGroup(ctx context.Context, repo Repository, id uuid.UUID) (*models.BolaoGroup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	group, err := repo.FindGroup(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bolão group")
	}
	if group == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bolão group not found")
	}
	return group, nil
}
