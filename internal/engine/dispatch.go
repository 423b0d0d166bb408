package engine

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// Events produced by the public operations. The dispatcher turns each
// qualifying event into exactly one notification row inside the same
// transaction that produced the state change.

type AnswerPostedEvent struct {
	QuestionID      int
	AnswerID        int
	AnsweringUserID int
}

type MentionEvent struct {
	QuestionID        int
	AnswerID          int
	MentionedUsername string
	MentioningUserID  int
}

type UpvoteEvent struct {
	AnswerID int
	VoterID  int
}

// dispatchAnswerPosted notifies the question's author about a new answer.
// Self-answers never notify.
func dispatchAnswerPosted(tx *gorm.DB, e AnswerPostedEvent) (*models.Notification, error) {
	var question models.Question
	if err := tx.First(&question, e.QuestionID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}

	if question.AuthorID == e.AnsweringUserID {
		return nil, nil
	}

	n := models.Notification{
		UserID:     question.AuthorID,
		Type:       models.NotificationTypeAnswer,
		Title:      "New answer to your question",
		Message:    fmt.Sprintf("Someone answered your question %q", question.Title),
		QuestionID: &e.QuestionID,
		AnswerID:   &e.AnswerID,
	}
	if err := tx.Create(&n).Error; err != nil {
		return nil, storeErr(err)
	}
	return &n, nil
}

// dispatchMention notifies a mentioned user. Unresolvable usernames and
// self-mentions are silently dropped, not errors.
func dispatchMention(tx *gorm.DB, e MentionEvent) (*models.Notification, error) {
	var mentioned models.User
	if err := tx.Where("username = ?", e.MentionedUsername).First(&mentioned).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	if mentioned.ID == e.MentioningUserID {
		return nil, nil
	}

	var actor models.User
	if err := tx.First(&actor, e.MentioningUserID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	var question models.Question
	if err := tx.First(&question, e.QuestionID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}

	n := models.Notification{
		UserID:     mentioned.ID,
		Type:       models.NotificationTypeMention,
		Title:      "You were mentioned in an answer",
		Message:    fmt.Sprintf("@%s mentioned you in an answer to %q", actor.Username, question.Title),
		QuestionID: &e.QuestionID,
		AnswerID:   &e.AnswerID,
	}
	if err := tx.Create(&n).Error; err != nil {
		return nil, storeErr(err)
	}
	return &n, nil
}

// dispatchUpvote notifies an answer's author that someone upvoted it.
// Voting on your own answer never notifies.
func dispatchUpvote(tx *gorm.DB, e UpvoteEvent) (*models.Notification, error) {
	var answer models.Answer
	if err := tx.First(&answer, e.AnswerID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if answer.AuthorID == e.VoterID {
		return nil, nil
	}

	var question models.Question
	if err := tx.First(&question, answer.QuestionID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}

	n := models.Notification{
		UserID:     answer.AuthorID,
		Type:       models.NotificationTypeUpvote,
		Title:      "Your answer was upvoted",
		Message:    fmt.Sprintf("Someone upvoted your answer to %q", question.Title),
		QuestionID: &answer.QuestionID,
		AnswerID:   &e.AnswerID,
	}
	if err := tx.Create(&n).Error; err != nil {
		return nil, storeErr(err)
	}
	return &n, nil
}
