package controllers

import (
	"net/http"

	"github.com/cartelabolao/cartela-admin/api/responses"
	"github.com/cartelabolao/cartela-admin/api/validators"
	"github.com/cartelabolao/cartela-admin/internal/notifications"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

// ListNotifications pages through the operator feed, newest first, with the
// current unread count. unread_only narrows the page to unread entries.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("notifications"))
			return
		}

		limit, err := validators.ParseLimit(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryFlag(r, "unread_only")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, notifications.ListParams{
			Limit:      limit,
			Cursor:     queryCursor(r),
			UnreadOnly: unreadOnly,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("notifications"))
			return
		}
		id, err := pathUUID(r, "notificationId")
		if err == nil {
			err = svc.MarkRead(ctx, id)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "read": true})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("notifications"))
			return
		}
		updated, err := svc.MarkAllRead(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
