package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/pkg/db/dbtest"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	"github.com/cartelabolao/cartela-admin/pkg/enums"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
	"github.com/cartelabolao/cartela-admin/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	createFn      func(ctx context.Context, notification *models.Notification) error
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, error)
	markReadFn    func(ctx context.Context, notificationID uuid.UUID, now time.Time) (bool, error)
	markAllReadFn func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakeRepository) Create(ctx context.Context, notification *models.Notification) error {
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	notification.ID = uuid.New()
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, notificationID uuid.UUID, now time.Time) (bool, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, notificationID, now)
	}
	return false, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, now)
	}
	return 0, nil
}

func (f *fakeRepository) CountUnread(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) DeleteReadOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []string
}

func (b *recordingBroadcaster) Publish(msgType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, msgType)
}

type recordingAlerts struct {
	texts []string
	err   error
}

func (a *recordingAlerts) Notify(ctx context.Context, text string) error {
	a.texts = append(a.texts, text)
	return a.err
}

type staticSettings struct {
	value settings.Settings
}

func (s staticSettings) Get(context.Context) (*settings.Settings, error) {
	out := s.value
	return &out, nil
}

func newServiceWithRepo(t *testing.T, repo Repository, opts Options) Service {
	t.Helper()
	svc, err := NewService(repo, opts)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, Options{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = NewService(&fakeRepository{}, Options{Alerts: &recordingAlerts{}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestPublishPersistsAndBroadcasts(t *testing.T) {
	client := dbtest.New(t)
	hub := &recordingBroadcaster{}
	svc := newServiceWithRepo(t, NewRepository(client.DB()), Options{Broadcaster: hub})

	created, err := svc.Publish(context.Background(), PublishInput{
		Level:   enums.NotificationLevelSuccess,
		Title:   "  Grupo 3 enviado ",
		Message: "10 mensagens",
		Source:  "automation",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, "Grupo 3 enviado", created.Title)
	require.Equal(t, []string{MessageType}, hub.frames)

	result, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "automation", result.Items[0].Source)
	require.EqualValues(t, 1, result.UnreadCount)
}

func TestPublishValidatesInput(t *testing.T) {
	svc := newServiceWithRepo(t, &fakeRepository{}, Options{})

	_, err := svc.Publish(context.Background(), PublishInput{Title: " "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Publish(context.Background(), PublishInput{Title: "x", Level: "loud"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, err := svc.Publish(context.Background(), PublishInput{Title: "x"})
	require.NoError(t, err)
	require.Equal(t, enums.NotificationLevelInfo, created.Level)
	require.Equal(t, "api", created.Source)
}

func TestPublishRepositoryFailure(t *testing.T) {
	hub := &recordingBroadcaster{}
	svc := newServiceWithRepo(t, &fakeRepository{
		createFn: func(context.Context, *models.Notification) error { return errors.New("boom") },
	}, Options{Broadcaster: hub})

	_, err := svc.Publish(context.Background(), PublishInput{Title: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	require.Empty(t, hub.frames)
}

func TestPublishTelegramRespectsToggle(t *testing.T) {
	alerts := &recordingAlerts{}
	off := settings.Defaults()
	svc := newServiceWithRepo(t, &fakeRepository{}, Options{Alerts: alerts, Settings: staticSettings{value: off}})
	_, err := svc.Publish(context.Background(), PublishInput{Title: "quiet"})
	require.NoError(t, err)
	require.Empty(t, alerts.texts)

	on := settings.Defaults()
	on.Notifications.TelegramAlerts = true
	alerts.err = errors.New("telegram down")
	svc = newServiceWithRepo(t, &fakeRepository{}, Options{Alerts: alerts, Settings: staticSettings{value: on}})
	_, err = svc.Publish(context.Background(), PublishInput{Level: enums.NotificationLevelError, Title: "Falha no envio", Message: "grupo 2"})
	require.NoError(t, err)
	require.Len(t, alerts.texts, 1)
	require.Contains(t, alerts.texts[0], "Falha no envio")
}

func TestListPaginatesByCreatedAt(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			Level:     enums.NotificationLevelInfo,
			Title:     "n",
			Message:   "m",
			Source:    "api",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}

	svc := newServiceWithRepo(t, repo, Options{})
	first, err := svc.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.Equal(t, ids[2], first.Items[0].ID)
	require.Equal(t, ids[1], first.Items[1].ID)
	require.NotEmpty(t, first.Cursor)

	decoded, err := pagination.ParseCursor(first.Cursor)
	require.NoError(t, err)
	require.Equal(t, ids[1], decoded.ID)

	second, err := svc.List(ctx, ListParams{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	require.Equal(t, ids[0], second.Items[0].ID)
	require.Empty(t, second.Cursor)
}

func TestListInvalidCursor(t *testing.T) {
	svc := newServiceWithRepo(t, &fakeRepository{}, Options{})
	_, err := svc.List(context.Background(), ListParams{Cursor: "bad"})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestMarkReadAndMarkAll(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	svc := newServiceWithRepo(t, repo, Options{})
	ctx := context.Background()

	first, err := svc.Publish(ctx, PublishInput{Title: "a"})
	require.NoError(t, err)
	_, err = svc.Publish(ctx, PublishInput{Title: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, first.ID))
	// already read still resolves
	require.NoError(t, svc.MarkRead(ctx, first.ID))

	err = svc.MarkRead(ctx, uuid.New())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	count, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	unread, err := svc.List(ctx, ListParams{UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unread.Items)
}

func TestMarkAllReadError(t *testing.T) {
	svc := newServiceWithRepo(t, &fakeRepository{
		markAllReadFn: func(context.Context, time.Time) (int64, error) { return 0, errors.New("boom") },
	}, Options{})
	_, err := svc.MarkAllRead(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
