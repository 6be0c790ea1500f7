package bolao

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/notifications"
	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/metrics"
	"github.com/cartelabolao/cartela-admin/pkg/whatsapp"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const notificationSource = "automation"

// Skip reasons reported per group.
const (
	SkipNoUpload     = "no_group_cards_upload"
	SkipNoQuotas     = "no_quotas"
	SkipNoRecipients = "no_recipients"
)

type settingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// GroupOutcome reports what happened to one ready group.
type GroupOutcome struct {
	GroupID     uuid.UUID `json:"group_id"`
	GroupNumber int       `json:"group_number"`
	Result      string    `json:"result"`
	Reason      string    `json:"reason,omitempty"`
	Messages    int       `json:"messages,omitempty"`
}

// SendSummary aggregates one CheckAndSendReadyGroups pass.
type SendSummary struct {
	Checked  int            `json:"checked"`
	Sent     int            `json:"sent"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Messages int            `json:"messages"`
	Groups   []GroupOutcome `json:"groups"`

	errs error
}

// Err combines the dispatch failures of the pass.
func (s SendSummary) Err() error { return s.errs }

// ProcessSummary aggregates one AutoProcessPendingSales pass.
type ProcessSummary struct {
	EditionID       *uuid.UUID `json:"edition_id,omitempty"`
	Pending         int        `json:"pending"`
	Allocated       int        `json:"allocated"`
	Skipped         int        `json:"skipped"`
	Failed          int        `json:"failed"`
	GroupsCompleted int        `json:"groups_completed"`

	errs error
}

func (s ProcessSummary) Err() error { return s.errs }

type AutomationParams struct {
	Repo          Repository
	Tx            txRunner
	Allocator     *Allocator
	Dispatcher    whatsapp.Dispatcher
	Settings      settingsReader
	Notifications notifications.Publisher
	Logger        *logger.Logger
	Metrics       *metrics.AutomationMetrics
	Now           func() time.Time
}

// Automation drives the open → complete → cards_ready → sent lifecycle.
type Automation struct {
	repo       Repository
	tx         txRunner
	allocator  *Allocator
	dispatcher whatsapp.Dispatcher
	settings   settingsReader
	notify     notifications.Publisher
	logg       *logger.Logger
	metrics    *metrics.AutomationMetrics
	now        func() time.Time
}

func NewAutomation(p AutomationParams) (*Automation, error) {
	switch {
	case p.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bolao repository required")
	case p.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case p.Allocator == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "allocator required")
	case p.Dispatcher == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "whatsapp dispatcher required")
	case p.Settings == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings reader required")
	}
	a := &Automation{
		repo:       p.Repo,
		tx:         p.Tx,
		allocator:  p.Allocator,
		dispatcher: p.Dispatcher,
		settings:   p.Settings,
		notify:     p.Notifications,
		logg:       p.Logger,
		metrics:    p.Metrics,
		now:        p.Now,
	}
	if a.logg == nil {
		a.logg = logger.Nop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a, nil
}

// CheckAndSendReadyGroups dispatches the cards of every complete group whose
// artifact is uploaded and that was not sent yet. A failed group stays unsent
// and is retried on the next pass.
func (a *Automation) CheckAndSendReadyGroups(ctx context.Context) (SendSummary, error) {
	var summary SendSummary
	groups, err := a.repo.ReadyGroups(ctx)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ready groups")
	}
	if len(groups) == 0 {
		return summary, nil
	}
	cfg, err := a.settings.Get(ctx)
	if err != nil {
		return summary, err
	}

	for i := range groups {
		group := groups[i]
		summary.Checked++
		outcome, sendErr := a.sendGroup(ctx, &group, cfg.WhatsAppTemplates.BolaoCards)
		summary.Groups = append(summary.Groups, outcome)
		a.metrics.IncDispatch(outcome.Result)
		switch outcome.Result {
		case metrics.DispatchSent:
			summary.Sent++
			summary.Messages += outcome.Messages
		case metrics.DispatchSkipped:
			summary.Skipped++
		case metrics.DispatchFailed:
			summary.Failed++
			summary.errs = multierr.Append(summary.errs, fmt.Errorf("group %d: %w", group.GroupNumber, sendErr))
			a.publish(ctx, enums.NotificationLevelError,
				fmt.Sprintf("Falha ao enviar cartelas do grupo %d", group.GroupNumber),
				sendErr.Error())
		}
	}

	if summary.Sent > 0 {
		a.publish(ctx, enums.NotificationLevelSuccess,
			"Cartelas do bolão enviadas",
			fmt.Sprintf("%d grupo(s) enviados, %d mensagem(ns) no WhatsApp.", summary.Sent, summary.Messages))
	}
	return summary, nil
}

func (a *Automation) sendGroup(ctx context.Context, group *models.BolaoGroup, template string) (GroupOutcome, error) {
	outcome := GroupOutcome{GroupID: group.ID, GroupNumber: group.GroupNumber}
	logCtx := a.logg.WithGroupID(ctx, group.ID.String())
	skip := func(reason string) (GroupOutcome, error) {
		outcome.Result = metrics.DispatchSkipped
		outcome.Reason = reason
		a.logg.Info(a.logg.WithField(logCtx, "reason", reason), "bolao.group_skipped")
		return outcome, nil
	}
	fail := func(err error) (GroupOutcome, error) {
		outcome.Result = metrics.DispatchFailed
		outcome.Reason = err.Error()
		a.logg.Error(logCtx, "bolao.group_dispatch_failed", err)
		return outcome, err
	}

	upload, err := a.repo.LatestUpload(ctx, group.ID, enums.UploadTypeGroupCards)
	if err != nil {
		return fail(err)
	}
	if upload == nil {
		return skip(SkipNoUpload)
	}
	quotas, err := a.repo.GroupQuotas(ctx, group.ID)
	if err != nil {
		return fail(err)
	}
	if len(quotas) == 0 {
		return skip(SkipNoQuotas)
	}
	edition, err := a.repo.FindEdition(ctx, group.EditionID)
	if err != nil {
		return fail(err)
	}
	editionNumber := 0
	if edition != nil {
		editionNumber = edition.Number
	}

	messages := buildMessages(quotas, template, group.GroupNumber, editionNumber, upload.FileURL)
	if len(messages) == 0 {
		return skip(SkipNoRecipients)
	}

	result, err := a.dispatcher.SendBulk(ctx, messages)
	if err != nil {
		return fail(err)
	}
	if len(result.Failed) > 0 {
		a.logg.Warn(a.logg.WithField(logCtx, "rejected", len(result.Failed)), "bolao.group_partial_delivery")
		a.publish(ctx, enums.NotificationLevelWarning,
			fmt.Sprintf("Grupo %d: mensagens recusadas", group.GroupNumber),
			fmt.Sprintf("%d de %d destinatário(s) recusados pelo WhatsApp.", len(result.Failed), len(messages)))
	}

	now := a.now().UTC()
	err = a.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := a.repo.WithTx(tx)
		if err := repo.MarkGroupSent(ctx, group.ID, now); err != nil {
			return err
		}
		return repo.MarkQuotasNotified(ctx, group.ID, now)
	})
	if err != nil {
		return fail(fmt.Errorf("mark group sent: %w", err))
	}

	a.metrics.AddMessages(result.Accepted)
	outcome.Result = metrics.DispatchSent
	outcome.Messages = result.Accepted
	a.logg.Info(a.logg.WithField(logCtx, "messages", result.Accepted), "bolao.group_sent")
	return outcome, nil
}

// buildMessages renders one message per quota; quotas whose buyer has no
// usable phone are left out.
func buildMessages(quotas []models.BolaoQuota, template string, groupNumber, editionNumber int, imageURL string) []whatsapp.Message {
	messages := make([]whatsapp.Message, 0, len(quotas))
	for _, quota := range quotas {
		if quota.Sale == nil || quota.Sale.Customer == nil {
			continue
		}
		customer := quota.Sale.Customer
		if whatsapp.NormalizePhone(customer.Phone) == "" {
			continue
		}
		messages = append(messages, whatsapp.Message{
			Phone: customer.Phone,
			Name:  customer.Name,
			Text: settings.Render(template, settings.TemplateVars{
				Name:    customer.Name,
				Quotas:  joinNumbers(quota.QuotaNumbers),
				Group:   groupNumber,
				Edition: editionNumber,
			}),
			ImageURL: imageURL,
		})
	}
	return messages
}

func joinNumbers(numbers []int) string {
	parts := make([]string, 0, len(numbers))
	for _, n := range numbers {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}

// AutoProcessPendingSales seats every paid bolão sale of the active edition
// that has no quota yet. Sales are allocated one at a time; a failure is
// counted and the batch carries on.
func (a *Automation) AutoProcessPendingSales(ctx context.Context) (ProcessSummary, error) {
	var summary ProcessSummary
	edition, err := a.repo.ActiveEdition(ctx)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active edition")
	}
	if edition == nil {
		a.logg.Debug(ctx, "bolao.no_active_edition")
		return summary, nil
	}
	summary.EditionID = &edition.ID
	logCtx := a.logg.WithEditionID(ctx, edition.ID.String())

	sales, err := a.repo.PaidBolaoSales(ctx, edition.ID)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paid bolão sales")
	}
	allocated, err := a.repo.AllocatedSaleIDs(ctx, edition.ID)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list allocated sales")
	}
	seated := make(map[uuid.UUID]struct{}, len(allocated))
	for _, id := range allocated {
		seated[id] = struct{}{}
	}

	for _, sale := range sales {
		if _, ok := seated[sale.ID]; ok {
			continue
		}
		summary.Pending++
		result, err := a.allocator.AllocateQuota(ctx, sale.ID, edition.ID)
		switch {
		case isSoft(err):
			summary.Skipped++
		case err != nil:
			summary.Failed++
			summary.errs = multierr.Append(summary.errs, fmt.Errorf("sale %s: %w", sale.ID, err))
		case result.AlreadyAllocated:
		default:
			summary.Allocated++
			if result.GroupComplete {
				summary.GroupsCompleted++
			}
		}
	}

	if summary.Pending > 0 {
		a.logg.Info(a.logg.WithFields(logCtx, map[string]any{
			"pending":   summary.Pending,
			"allocated": summary.Allocated,
			"failed":    summary.Failed,
		}), "bolao.pending_sales_processed")
	}
	if summary.Allocated > 0 {
		msg := fmt.Sprintf("%d venda(s) alocadas em grupos do bolão.", summary.Allocated)
		if summary.GroupsCompleted > 0 {
			msg += fmt.Sprintf(" %d grupo(s) completos aguardando cartelas.", summary.GroupsCompleted)
		}
		a.publish(ctx, enums.NotificationLevelSuccess, "Vendas processadas", msg)
	}
	if summary.Failed > 0 {
		a.publish(ctx, enums.NotificationLevelWarning, "Falha ao alocar vendas",
			fmt.Sprintf("%d venda(s) não puderam ser alocadas; nova tentativa no próximo ciclo.", summary.Failed))
	}
	return summary, nil
}

func (a *Automation) publish(ctx context.Context, level enums.NotificationLevel, title, message string) {
	if a.notify == nil {
		return
	}
	_, err := a.notify.Publish(ctx, notifications.PublishInput{
		Level:   level,
		Title:   title,
		Message: message,
		Source:  notificationSource,
	})
	if err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "bolao.notification_failed")
	}
}

func isSoft(err error) bool {
	return errors.Is(err, ErrSaleNotFound) || errors.Is(err, ErrSaleNotEligible) || errors.Is(err, ErrEditionNotFound)
}
