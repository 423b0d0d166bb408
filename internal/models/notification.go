package models

import "time"

const (
	NotificationTypeAnswer  = "answer"
	NotificationTypeMention = "mention"
	NotificationTypeUpvote  = "upvote"
)

// Notification is created as the side effect of a qualifying state
// transition and is only ever mutated to flip IsRead.
type Notification struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	UserID  int    `gorm:"not null;index" json:"user_id"`
	Type    string `gorm:"not null" json:"type"`
	Title   string `gorm:"not null" json:"title"`
	Message string `json:"message"`

	QuestionID *int `json:"question_id,omitempty"`
	AnswerID   *int `json:"answer_id,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
