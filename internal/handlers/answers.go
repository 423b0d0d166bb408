package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/engine"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type AnswerHandler struct {
	db     *gorm.DB
	engine *engine.Engine
}

func NewAnswerHandler(db *gorm.DB, eng *engine.Engine) *AnswerHandler {
	return &AnswerHandler{db: db, engine: eng}
}

// GetAnswers returns all answers for a question, newest first.
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID := c.Param("id")

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var answers []models.Answer
	if err := h.db.Where("question_id = ?", question.ID).Preload("Author").Order("created_at desc").Find(&answers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	if answers == nil {
		answers = []models.Answer{}
	}

	c.JSON(http.StatusOK, answers)
}

// PostAnswer creates an answer and fans out its notifications
// (PROTECTED - requires authentication)
func (h *AnswerHandler) PostAnswer(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question id"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.PostAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.PostAnswer(c.Request.Context(), userID, questionID, input.Content)
	if err != nil {
		engineError(c, err)
		return
	}

	h.db.Preload("Author").First(&result.Answer, result.Answer.ID)

	c.JSON(http.StatusCreated, result)
}

// AcceptAnswer marks an answer as the question's accepted answer
// (PROTECTED - question author only)
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	questionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question id"})
		return
	}
	answerID, err := strconv.Atoi(c.Param("answerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer id"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	outcome, err := h.engine.AcceptAnswer(c.Request.Context(), userID, questionID, answerID)
	if err != nil {
		engineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "changed": outcome.Changed})
}
