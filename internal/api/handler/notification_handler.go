package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type notificationListView struct {
	Data        []domain.Notification `json:"data"`
	UnreadCount int                   `json:"unread_count"`
}

// List returns the merged, de-duplicated, freshest-first view.
//
// @Summary      Aggregated notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  notificationListView
// @Router       /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, notificationListView{
		Data:        h.notifications.Notifications(),
		UnreadCount: h.notifications.UnreadCount(),
	})
}

// UnreadCount returns the last polled unread counter.
//
// @Summary      Unread count
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"count": h.notifications.UnreadCount()})
}

// Refresh forces an immediate refetch of both resources.
//
// @Summary      Refresh notifications now
// @Tags         notifications
// @Success      204
// @Router       /notifications/refresh [post]
func (h *NotificationHandler) Refresh(c echo.Context) error {
	h.notifications.Refresh(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// MarkRead marks one notification read.
//
// @Summary      Mark one notification as read
// @Tags         notifications
// @Param        id  path  int  true  "Notification id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	if err := h.notifications.MarkAsRead(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead marks every notification read.
//
// @Summary      Mark every notification as read
// @Tags         notifications
// @Success      204
// @Router       /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.notifications.MarkAllAsRead(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
