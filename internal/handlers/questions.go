package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type QuestionHandler struct {
	db *gorm.DB
}

func NewQuestionHandler(db *gorm.DB) *QuestionHandler {
	return &QuestionHandler{db: db}
}

func (h *QuestionHandler) questionResponse(question models.Question) gin.H {
	var answerCount int64
	h.db.Model(&models.Answer{}).Where("question_id = ?", question.ID).Count(&answerCount)

	return gin.H{
		"id":                 question.ID,
		"title":              question.Title,
		"description":        question.Description,
		"author_id":          question.AuthorID,
		"author":             question.Author,
		"tags":               question.TagList(),
		"vote_score":         question.VoteScore,
		"view_count":         question.ViewCount,
		"accepted_answer_id": question.AcceptedAnswerID,
		"answer_count":       answerCount,
		"created_at":         question.CreatedAt,
		"updated_at":         question.UpdatedAt,
	}
}

// GetQuestions lists questions with optional title search, an
// unanswered/newest filter, and page/per_page pagination.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	query := h.db.Model(&models.Question{}).Preload("Author")

	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	switch c.DefaultQuery("filter", "newest") {
	case "unanswered":
		query = query.Where("NOT EXISTS (SELECT 1 FROM answers WHERE answers.question_id = questions.id)")
	case "newest":
		query = query.Order("created_at desc")
	}

	var questions []models.Question
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var responses []gin.H
	for _, question := range questions {
		responses = append(responses, h.questionResponse(question))
	}

	// If no questions, return empty array not null
	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}

// GetQuestion returns a single question by ID and bumps its view count.
// The increment is best-effort: a lost update under race is tolerable.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := c.Param("id")
	var question models.Question

	if err := h.db.Preload("Author").First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	h.db.Model(&question).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	question.ViewCount++

	c.JSON(http.StatusOK, h.questionResponse(question))
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tags, err := json.Marshal(input.Tags)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
		return
	}

	question := models.Question{
		Title:       input.Title,
		Description: input.Description,
		AuthorID:    authorID,
		Tags:        string(tags),
	}

	if err := h.db.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.Preload("Author").First(&question, question.ID)

	c.JSON(http.StatusCreated, h.questionResponse(question))
}

// GetTags returns every distinct tag across all questions, sorted.
func (h *QuestionHandler) GetTags(c *gin.Context) {
	var questions []models.Question
	if err := h.db.Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	seen := make(map[string]bool)
	for _, question := range questions {
		for _, tag := range question.TagList() {
			seen[tag] = true
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// GetTagQuestions returns questions carrying a specific tag.
func (h *QuestionHandler) GetTagQuestions(c *gin.Context) {
	tag := c.Param("tag")

	var questions []models.Question
	if err := h.db.Preload("Author").Order("created_at desc").Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var responses []gin.H
	for _, question := range questions {
		for _, t := range question.TagList() {
			if t == tag {
				responses = append(responses, h.questionResponse(question))
				break
			}
		}
	}

	if responses == nil {
		responses = []gin.H{}
	}

	c.JSON(http.StatusOK, responses)
}
