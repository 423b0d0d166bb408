package models

import "time"

const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote records one user's vote on a question or an answer. Exactly one of
// QuestionID/AnswerID is set; the composite unique indexes guarantee at most
// one row per (user, target).
type Vote struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	UserID     int    `gorm:"not null;uniqueIndex:idx_votes_user_question;uniqueIndex:idx_votes_user_answer" json:"user_id"`
	QuestionID *int   `gorm:"uniqueIndex:idx_votes_user_question" json:"question_id,omitempty"`
	AnswerID   *int   `gorm:"uniqueIndex:idx_votes_user_answer" json:"answer_id,omitempty"`
	VoteType   string `gorm:"not null" json:"vote_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CastVoteRequest struct {
	QuestionID *int   `json:"question_id"`
	AnswerID   *int   `json:"answer_id"`
	VoteType   string `json:"vote_type" binding:"required"`
}
