package handler

import (
	"net/http"

	commentDto "chattr.app/backend/internal/modules/comment/dto"
	comment "chattr.app/backend/internal/modules/comment/service"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	service comment.CommentService
}

func NewCommentHandler(service comment.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, ok := response.ParamID(c, "postId", "Post not found.")
	if !ok {
		return
	}

	var req commentDto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err)
		return
	}

	resp, err := h.service.CreateComment(c.Request.Context(), userID, postID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Comment added successfully.", resp)
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := response.ParamID(c, "postId", "Post not found.")
	if !ok {
		return
	}

	comments, err := h.service.GetComments(c.Request.Context(), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Comments retrieved successfully.", comments)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	commentID, ok := response.ParamID(c, "commentId", "Comment not found.")
	if !ok {
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Comment deleted successfully.", nil)
}
