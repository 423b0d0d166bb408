package engine

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// AcceptOutcome reports whether the accepted answer actually changed.
// Re-accepting the current answer succeeds without side effects.
type AcceptOutcome struct {
	Changed bool `json:"changed"`
}

// acceptAnswer performs the two-part accepted-answer swap: clear the previous
// answer's flag, then mark the new one and point the question at it. The
// question row is locked FOR UPDATE for the duration so two concurrent
// accepts on the same question serialize instead of both winning.
func acceptAnswer(tx *gorm.DB, actingUserID, questionID, answerID int) (AcceptOutcome, error) {
	var answer models.Answer
	if err := tx.First(&answer, answerID).Error; err != nil {
		if isNotFound(err) {
			return AcceptOutcome{}, ErrNotFound
		}
		return AcceptOutcome{}, storeErr(err)
	}
	if answer.QuestionID != questionID {
		return AcceptOutcome{}, ErrNotFound
	}

	var question models.Question
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&question, questionID).Error; err != nil {
		if isNotFound(err) {
			return AcceptOutcome{}, ErrNotFound
		}
		return AcceptOutcome{}, storeErr(err)
	}

	if question.AuthorID != actingUserID {
		return AcceptOutcome{}, ErrForbidden
	}

	if question.AcceptedAnswerID != nil && *question.AcceptedAnswerID == answerID {
		return AcceptOutcome{Changed: false}, nil
	}

	if question.AcceptedAnswerID != nil {
		err := tx.Model(&models.Answer{}).
			Where("id = ?", *question.AcceptedAnswerID).
			Update("is_accepted", false).Error
		if err != nil {
			return AcceptOutcome{}, storeErr(err)
		}
	}

	if err := tx.Model(&models.Answer{}).Where("id = ?", answerID).Update("is_accepted", true).Error; err != nil {
		return AcceptOutcome{}, storeErr(err)
	}
	if err := tx.Model(&models.Question{}).Where("id = ?", questionID).Update("accepted_answer_id", answerID).Error; err != nil {
		return AcceptOutcome{}, storeErr(err)
	}

	return AcceptOutcome{Changed: true}, nil
}
