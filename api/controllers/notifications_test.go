package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cartelabolao/cartela-admin/internal/notifications"
	"github.com/cartelabolao/cartela-admin/pkg/db/models"
	pkgerrors "github.com/cartelabolao/cartela-admin/pkg/errors"
)

type stubNotificationsService struct {
	notifications.Publisher
	listFn    func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markRead  func(ctx context.Context, id uuid.UUID) error
	readCount int64
}

func (s *stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn == nil {
		return &notifications.ListResult{Items: []models.Notification{}}, nil
	}
	return s.listFn(ctx, params)
}

func (s *stubNotificationsService) MarkRead(ctx context.Context, id uuid.UUID) error {
	if s.markRead == nil {
		return nil
	}
	return s.markRead(ctx, id)
}

func (s *stubNotificationsService) MarkAllRead(context.Context) (int64, error) {
	return s.readCount, nil
}

func TestListNotificationsParsesQuery(t *testing.T) {
	var got notifications.ListParams
	svc := &stubNotificationsService{
		listFn: func(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{Items: []models.Notification{}, UnreadCount: 4}, nil
		},
	}

	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&unread_only=true&cursor=abc", nil))

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, notifications.ListParams{Limit: 10, Cursor: "abc", UnreadOnly: true}, got)
	require.EqualValues(t, 4, decodeData[notifications.ListResult](t, resp).UnreadCount)
}

func TestListNotificationsRejectsBadQuery(t *testing.T) {
	for _, query := range []string{"limit=-1", "limit=500", "unread_only=maybe"} {
		resp := httptest.NewRecorder()
		ListNotifications(&stubNotificationsService{}, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?"+query, nil))
		require.Equal(t, http.StatusBadRequest, resp.Code, query)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	id := uuid.New()
	var marked uuid.UUID
	svc := &stubNotificationsService{markRead: func(_ context.Context, got uuid.UUID) error {
		marked = got
		return nil
	}}

	req := addRouteParam(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id.String()+"/read", nil), "notificationId", id.String())
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, id, marked)
	body := decodeData[map[string]any](t, resp)
	require.Equal(t, true, body["read"])
	require.Equal(t, id.String(), body["id"])
}

func TestMarkNotificationReadErrors(t *testing.T) {
	req := addRouteParam(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/x/read", nil), "notificationId", "x")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&stubNotificationsService{}, testLogger())(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	missing := &stubNotificationsService{markRead: func(context.Context, uuid.UUID) error {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}}
	id := uuid.NewString()
	req = addRouteParam(httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id+"/read", nil), "notificationId", id)
	resp = httptest.NewRecorder()
	MarkNotificationRead(missing, testLogger())(resp, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(&stubNotificationsService{readCount: 5}, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.EqualValues(t, 5, decodeData[map[string]int64](t, resp)["updated"])
}

func TestNotificationsWithoutService(t *testing.T) {
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(nil, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
