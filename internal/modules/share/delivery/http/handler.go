package handler

import (
	"net/http"

	shareDto "chattr.app/backend/internal/modules/share/dto"
	share "chattr.app/backend/internal/modules/share/service"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ShareHandler struct {
	service share.ShareService
}

func NewShareHandler(service share.ShareService) *ShareHandler {
	return &ShareHandler{service: service}
}

func (h *ShareHandler) SharePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, ok := response.ParamID(c, "postId", "Original post not found.")
	if !ok {
		return
	}

	// the body is optional, a share without caption is valid
	var req shareDto.SharePostRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindingError(c, err)
			return
		}
	}

	resp, err := h.service.SharePost(c.Request.Context(), userID, postID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Post shared successfully.", resp)
}
