// Package engine implements the engagement-consistency core: the vote
// ledger, the accepted-answer swap, and notification fan-out, composed into
// atomic operations over the relational store. Each public operation runs as
// one transaction so callers never observe a vote without its recomputed
// score or an answer without its notifications.
package engine

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type Engine struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// PostAnswerResult carries the created answer plus the ids of every
// notification the post fanned out (answer + mentions).
type PostAnswerResult struct {
	Answer          models.Answer `json:"answer"`
	NotificationIDs []int         `json:"notification_ids"`
}

// PostAnswer inserts the answer, notifies the question's author, and fires
// one mention notification per @username occurrence in the content, all in
// one transaction.
func (e *Engine) PostAnswer(ctx context.Context, answeringUserID, questionID int, content string) (PostAnswerResult, error) {
	if strings.TrimSpace(content) == "" {
		return PostAnswerResult{}, ErrInvalidInput
	}

	var result PostAnswerResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, questionID).Error; err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return storeErr(err)
		}

		answer := models.Answer{
			Content:    content,
			QuestionID: questionID,
			AuthorID:   answeringUserID,
		}
		if err := tx.Create(&answer).Error; err != nil {
			return storeErr(err)
		}

		n, err := dispatchAnswerPosted(tx, AnswerPostedEvent{
			QuestionID:      questionID,
			AnswerID:        answer.ID,
			AnsweringUserID: answeringUserID,
		})
		if err != nil {
			return err
		}
		if n != nil {
			result.NotificationIDs = append(result.NotificationIDs, n.ID)
		}

		for _, username := range ScanMentions(content) {
			n, err := dispatchMention(tx, MentionEvent{
				QuestionID:        questionID,
				AnswerID:          answer.ID,
				MentionedUsername: username,
				MentioningUserID:  answeringUserID,
			})
			if err != nil {
				return err
			}
			if n != nil {
				result.NotificationIDs = append(result.NotificationIDs, n.ID)
			}
		}

		result.Answer = answer
		return nil
	})
	if err != nil {
		return PostAnswerResult{}, err
	}
	return result, nil
}

// CastVote records or overwrites the actor's vote and returns the target's
// recomputed score. An up vote on someone else's answer notifies the author;
// per the observed product behavior this fires on re-votes too, not just the
// first vote. A conflicting concurrent insert is retried once with a fresh
// transaction before surfacing ErrConflict.
func (e *Engine) CastVote(ctx context.Context, actorID int, target VoteTarget, direction string) (VoteOutcome, error) {
	attempt := func() (VoteOutcome, error) {
		var outcome VoteOutcome
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			outcome, err = castVote(tx, actorID, target, direction)
			if err != nil {
				return err
			}

			if answerID, ok := target.Answer(); ok && direction == models.VoteUp {
				if _, err := dispatchUpvote(tx, UpvoteEvent{AnswerID: answerID, VoterID: actorID}); err != nil {
					return err
				}
			}
			return nil
		})
		return outcome, err
	}

	outcome, err := attempt()
	if errors.Is(err, ErrConflict) {
		outcome, err = attempt()
	}
	return outcome, err
}

// AcceptAnswer designates the question's accepted answer. Only the question's
// author may accept, and at most one answer per question carries the flag.
// Acceptance emits no notification. A conflicting concurrent accept is
// retried once before surfacing.
func (e *Engine) AcceptAnswer(ctx context.Context, actingUserID, questionID, answerID int) (AcceptOutcome, error) {
	attempt := func() (AcceptOutcome, error) {
		var outcome AcceptOutcome
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			outcome, err = acceptAnswer(tx, actingUserID, questionID, answerID)
			return err
		})
		return outcome, err
	}

	outcome, err := attempt()
	if errors.Is(err, ErrConflict) {
		outcome, err = attempt()
	}
	return outcome, err
}

// Notifications lists the recipient's notifications, newest first.
func (e *Engine) Notifications(ctx context.Context, userID int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&notifications).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return notifications, nil
}

// MarkAllRead flips every unread notification owned by the recipient.
func (e *Engine) MarkAllRead(ctx context.Context, userID int) error {
	err := e.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// UnreadCount returns the recipient's number of unread notifications.
func (e *Engine) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storeErr(err)
	}
	return int(count), nil
}

// MarkRead marks one notification read. Notifications are owned by their
// recipient: a non-owner call is a silent no-op, a missing id is ErrNotFound.
func (e *Engine) MarkRead(ctx context.Context, userID, notificationID int) error {
	var n models.Notification
	if err := e.db.WithContext(ctx).First(&n, notificationID).Error; err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return storeErr(err)
	}
	if n.UserID != userID {
		return nil
	}
	err := e.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
	if err != nil {
		return storeErr(err)
	}
	return nil
}
