package handler

import (
	"net/http"

	notifDto "chattr.app/backend/internal/modules/notification/dto"
	notification "chattr.app/backend/internal/modules/notification/service"
	commonDto "chattr.app/backend/pkg/dto"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notification.NotificationService
}

func NewNotificationHandler(service notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query commonDto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindingError(c, err)
		return
	}

	page, err := h.service.GetNotifications(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Notifications retrieved successfully.", page)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Unread notifications counted.", notifDto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	id, ok := response.ParamID(c, "id", "Notification not found.")
	if !ok {
		return
	}

	n, transitioned, err := h.service.MarkAsRead(c.Request.Context(), userID, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	msg := "Notification marked as read."
	if !transitioned {
		msg = "Notification already marked as read."
	}
	response.Success(c, http.StatusOK, msg, n)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	updated, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if updated == 0 {
		response.Success(c, http.StatusOK, "All notifications are already read.", notifDto.MarkAllReadResponse{})
		return
	}
	response.Success(c, http.StatusOK, "All notifications marked as read.", notifDto.MarkAllReadResponse{Updated: updated})
}
