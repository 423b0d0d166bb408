package models

import "time"

type Answer struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	Content    string `gorm:"not null" json:"content"`
	QuestionID int    `gorm:"not null;index" json:"question_id"`
	AuthorID   int    `gorm:"not null" json:"author_id"`
	Author     User   `gorm:"foreignKey:AuthorID" json:"author"`

	VoteScore  int  `gorm:"default:0" json:"vote_score"`
	IsAccepted bool `gorm:"default:false" json:"is_accepted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PostAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
