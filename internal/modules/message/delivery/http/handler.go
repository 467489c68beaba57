package handler

import (
	"net/http"

	messageDto "chattr.app/backend/internal/modules/message/dto"
	message "chattr.app/backend/internal/modules/message/service"
	commonDto "chattr.app/backend/pkg/dto"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service message.MessageService
}

func NewMessageHandler(service message.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) GetChatrooms(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query messageDto.ChatroomListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindingError(c, err)
		return
	}

	rooms, err := h.service.ListChatrooms(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Chatrooms retrieved successfully.", rooms)
}

func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	chatroomID, ok := response.ParamID(c, "chatroomId", "Chatroom not found.")
	if !ok {
		return
	}

	var query commonDto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindingError(c, err)
		return
	}

	page, err := h.service.GetConversation(c.Request.Context(), userID, chatroomID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Messages retrieved successfully.", page)
}

func (h *MessageHandler) CreateChatroom(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req messageDto.CreateChatroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err)
		return
	}

	resp, err := h.service.CreateChatroom(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if !resp.NewChatroom {
		response.Success(c, http.StatusOK, "Chatroom already exists.", resp)
		return
	}
	response.Success(c, http.StatusCreated, "Chatroom created successfully.", resp)
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req messageDto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err)
		return
	}

	resp, err := h.service.SendMessage(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Message sent successfully.", resp)
}

func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	chatroomID, ok := response.ParamID(c, "chatroomId", "Chatroom not found.")
	if !ok {
		return
	}

	updated, err := h.service.MarkAsRead(c.Request.Context(), userID, chatroomID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Messages marked as read.", messageDto.MarkReadResponse{Updated: updated})
}
