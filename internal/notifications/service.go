package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/cartelabolao/cartela-admin/pkg/telegram"
	"github.com/google/uuid"
)

// MessageType is the realtime frame type carrying a new notification.
const MessageType = "notification"

// Publisher records an operator-facing notification. Automation and services
// depend on this narrow interface.
type Publisher interface {
	Publish(ctx context.Context, input PublishInput) (*models.Notification, error)
}

// Service defines notification publish/list/read operations.
type Service interface {
	Publisher
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

// Broadcaster pushes frames to connected dashboards.
type Broadcaster interface {
	Publish(msgType string, payload any)
}

type settingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type PublishInput struct {
	Level   enums.NotificationLevel
	Title   string
	Message string
	Source  string
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items       []models.Notification `json:"items"`
	Cursor      string                `json:"cursor"`
	UnreadCount int64                 `json:"unread_count"`
}

type Options struct {
	Broadcaster Broadcaster
	Alerts      telegram.Notifier
	Settings    settingsReader
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	broadcaster Broadcaster
	alerts      telegram.Notifier
	settings    settingsReader
	logg        *logger.Logger
}

// NewService wires notifications dependencies. Broadcaster and alerts are optional.
func NewService(repo Repository, opts Options) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if opts.Alerts != nil && opts.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings reader required for alerts")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        repo,
		broadcaster: opts.Broadcaster,
		alerts:      opts.Alerts,
		settings:    opts.Settings,
		logg:        logg,
	}, nil
}

func (s *service) Publish(ctx context.Context, input PublishInput) (*models.Notification, error) {
	level := input.Level
	if level == "" {
		level = enums.NotificationLevelInfo
	}
	if !level.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid notification level %q", level)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = "api"
	}

	notification := &models.Notification{
		Level:   level,
		Title:   title,
		Message: strings.TrimSpace(input.Message),
		Source:  source,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(MessageType, notification)
	}
	s.alert(ctx, notification)
	return notification, nil
}

// alert forwards to Telegram when the admin enabled it. Failures are logged only.
func (s *service) alert(ctx context.Context, notification *models.Notification) {
	if s.alerts == nil {
		return
	}
	current, err := s.settings.Get(ctx)
	if err != nil {
		s.logg.Error(ctx, "notifications.alert_settings_failed", err)
		return
	}
	if !current.Notifications.TelegramAlerts {
		return
	}
	text := telegram.FormatAlert(notification.Level, notification.Title, notification.Message)
	if err := s.alerts.Notify(ctx, text); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "notification_id", notification.ID.String()), "notifications.alert_failed", err)
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listNotificationsParams{
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	items, cursor := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	if items == nil {
		items = []models.Notification{}
	}
	return &ListResult{
		Items:       items,
		Cursor:      cursor,
		UnreadCount: unread,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	found, err := s.repo.MarkRead(ctx, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
