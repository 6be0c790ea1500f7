package individualcards

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/cartelabolao/cartela-admin/pkg/types"
	"github.com/cartelabolao/cartela-admin/pkg/whatsapp"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type settingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Service interface {
	List(ctx context.Context, params ListParams) (*types.Page[IndividualCardDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*IndividualCardDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*IndividualCardDTO, error)
	SendWhatsApp(ctx context.Context, id uuid.UUID) (*IndividualCardDTO, error)
}

type service struct {
	repo       Repository
	dispatcher whatsapp.Dispatcher
	settings   settingsReader
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(repo Repository, dispatcher whatsapp.Dispatcher, settingsSvc settingsReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "individual card repository required")
	}
	if dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "whatsapp dispatcher required")
	}
	if settingsSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, dispatcher: dispatcher, settings: settingsSvc, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*types.Page[IndividualCardDTO], error) {
	query := listParams{
		EditionID: params.EditionID,
		Sent:      params.Sent,
		Limit:     pagination.LimitWithBuffer(params.Limit),
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list individual cards")
	}
	page, next := pagination.Trim(rows, params.Limit, func(c models.IndividualCard) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	items := make([]IndividualCardDTO, 0, len(page))
	for i := range page {
		items = append(items, *FromModel(&page[i]))
	}
	return &types.Page[IndividualCardDTO]{Items: items, Cursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*IndividualCardDTO, error) {
	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(card), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*IndividualCardDTO, error) {
	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if input.CardSent != nil && *input.CardSent != card.CardSent {
		card.CardSent = *input.CardSent
		if card.CardSent {
			card.CardSentAt = &now
		} else {
			card.CardSentAt = nil
		}
	}
	if input.Notes != nil {
		card.Notes = trimmed(*input.Notes)
	}
	if input.FileURL != nil {
		card.FileURL = trimmed(*input.FileURL)
		if input.FileName == nil && card.FileURL != nil {
			name := fileNameFromURL(*card.FileURL)
			card.FileName = &name
		}
	}
	if input.FileName != nil {
		card.FileName = trimmed(*input.FileName)
	}
	if err := s.repo.Save(ctx, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update individual card")
	}
	return FromModel(card), nil
}

// SendWhatsApp delivers the attached card image to the buyer and marks the
// card as sent on success.
func (s *service) SendWhatsApp(ctx context.Context, id uuid.UUID) (*IndividualCardDTO, error) {
	card, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sale := card.Sale
	if sale == nil || sale.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "individual card without sale")
	}
	if !sale.PaymentStatus.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not paid").
			WithDetail("payment_status", sale.PaymentStatus)
	}
	if card.FileURL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no card file attached")
	}
	if whatsapp.NormalizePhone(sale.Customer.Phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone is not valid for whatsapp")
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	edition, err := s.repo.EditionNumber(ctx, sale.EditionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load edition")
	}

	text := settings.Render(cfg.WhatsAppTemplates.IndividualCard, settings.TemplateVars{
		Name:    sale.Customer.Name,
		Edition: edition,
	})
	result, err := s.dispatcher.SendBulk(ctx, []whatsapp.Message{{
		Phone:    sale.Customer.Phone,
		Name:     sale.Customer.Name,
		Text:     text,
		ImageURL: *card.FileURL,
	}})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send whatsapp message")
	}
	if len(result.Failed) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "whatsapp rejected the message").
			WithDetail("reason", result.Failed[0].Reason)
	}

	now := s.now().UTC()
	card.WhatsAppSent = true
	card.WhatsAppSentAt = &now
	if !card.CardSent {
		card.CardSent = true
		card.CardSentAt = &now
	}
	if err := s.repo.Save(ctx, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark individual card sent")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"sale_id":   sale.ID.String(),
		"recipient": sale.Customer.Phone,
	})
	s.logg.Info(logCtx, "individual_card.whatsapp_sent")
	return FromModel(card), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.IndividualCard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "individual card id required")
	}
	card, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "individual card not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load individual card")
	}
	return card, nil
}

func trimmed(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func fileNameFromURL(raw string) string {
	raw = strings.SplitN(raw, "?", 2)[0]
	if idx := strings.LastIndex(raw, "/"); idx >= 0 {
		return raw[idx+1:]
	}
	return raw
}
