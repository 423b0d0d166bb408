package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/stackit/backend/internal/engine"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type VoteHandler struct {
	engine *engine.Engine
}

func NewVoteHandler(eng *engine.Engine) *VoteHandler {
	return &VoteHandler{engine: eng}
}

// CastVote handles voting on a question or an answer
// (PROTECTED - requires authentication)
func (h *VoteHandler) CastVote(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CastVoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote type must be up or down"})
		return
	}

	var target engine.VoteTarget
	switch {
	case input.QuestionID != nil && input.AnswerID == nil:
		target = engine.QuestionTarget(*input.QuestionID)
	case input.AnswerID != nil && input.QuestionID == nil:
		target = engine.AnswerTarget(*input.AnswerID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exactly one of question_id or answer_id is required"})
		return
	}

	outcome, err := h.engine.CastVote(c.Request.Context(), voterID, target, input.VoteType)
	if err != nil {
		engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"new_score": outcome.NewScore})
}
