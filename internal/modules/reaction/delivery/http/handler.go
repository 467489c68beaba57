package handler

import (
	"net/http"

	reaction "chattr.app/backend/internal/modules/reaction/service"
	"chattr.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	service reaction.ReactionService
}

func NewReactionHandler(service reaction.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

func (h *ReactionHandler) ReactToPost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, ok := response.ParamID(c, "postId", "Post not found.")
	if !ok {
		return
	}

	resp, err := h.service.React(c.Request.Context(), userID, postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Reaction added successfully.", resp)
}

func (h *ReactionHandler) GetReactions(c *gin.Context) {
	postID, ok := response.ParamID(c, "postId", "Post not found.")
	if !ok {
		return
	}

	reactions, err := h.service.GetReactions(c.Request.Context(), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Reactions retrieved successfully.", reactions)
}

func (h *ReactionHandler) RemoveReaction(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	reactionID, ok := response.ParamID(c, "reactionId", "Reaction not found.")
	if !ok {
		return
	}

	if err := h.service.RemoveReaction(c.Request.Context(), userID, reactionID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Reaction removed successfully.", nil)
}
