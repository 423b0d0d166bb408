package models

import (
	"encoding/json"
	"time"
)

type Question struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	AuthorID    int    `gorm:"not null" json:"author_id"`
	Author      User   `gorm:"foreignKey:AuthorID" json:"author"`

	// Tags is a JSON-encoded array of tag strings.
	Tags string `json:"-"`

	VoteScore        int  `gorm:"default:0" json:"vote_score"`
	ViewCount        int  `gorm:"default:0" json:"view_count"`
	AcceptedAnswerID *int `json:"accepted_answer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagList decodes the stored tag array. Malformed or empty storage
// yields an empty list rather than an error.
func (q *Question) TagList() []string {
	if q.Tags == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(q.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}

type CreateQuestionRequest struct {
	Title       string   `json:"title" binding:"required,min=10,max=200"`
	Description string   `json:"description" binding:"required,min=20"`
	Tags        []string `json:"tags" binding:"required,min=1"`
}
