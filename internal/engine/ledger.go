package engine

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// VoteOutcome reports the target's recomputed score and whether the call
// overwrote an existing vote rather than inserting a fresh one.
type VoteOutcome struct {
	NewScore int  `json:"new_score"`
	Updated  bool `json:"updated"`
}

// castVote upserts the (actor, target) vote row and recomputes the target's
// score from scratch. It must run inside a transaction; the composite unique
// indexes on votes back the one-row-per-pair contract, and a unique violation
// under a race surfaces as ErrConflict for the orchestrator to retry.
func castVote(tx *gorm.DB, actorID int, target VoteTarget, direction string) (VoteOutcome, error) {
	if direction != models.VoteUp && direction != models.VoteDown {
		return VoteOutcome{}, ErrInvalidInput
	}
	if !target.valid() {
		return VoteOutcome{}, ErrInvalidInput
	}

	if err := checkTarget(tx, target); err != nil {
		return VoteOutcome{}, err
	}

	var existing models.Vote
	err := voteQuery(tx, actorID, target).First(&existing).Error
	updated := err == nil

	switch {
	case updated:
		existing.VoteType = direction
		existing.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&existing).Error; err != nil {
			return VoteOutcome{}, storeErr(err)
		}
	case isNotFound(err):
		vote := models.Vote{UserID: actorID, VoteType: direction}
		if id, ok := target.Question(); ok {
			vote.QuestionID = &id
		}
		if id, ok := target.Answer(); ok {
			vote.AnswerID = &id
		}
		if err := tx.Create(&vote).Error; err != nil {
			if isUniqueViolation(err) {
				return VoteOutcome{}, ErrConflict
			}
			return VoteOutcome{}, storeErr(err)
		}
	default:
		return VoteOutcome{}, storeErr(err)
	}

	score, err := recountScore(tx, target)
	if err != nil {
		return VoteOutcome{}, err
	}

	return VoteOutcome{NewScore: score, Updated: updated}, nil
}

// recountScore recomputes count(up) - count(down) over every vote for the
// exact target and writes it back to the target row. Always a full recount,
// never an incremental bump, so repeated re-votes by the same actor cannot
// drift the score.
func recountScore(tx *gorm.DB, target VoteTarget) (int, error) {
	var up, down int64

	column := "answer_id"
	targetID, isAnswer := target.Answer()
	if !isAnswer {
		column = "question_id"
		targetID, _ = target.Question()
	}

	if err := tx.Model(&models.Vote{}).Where(column+" = ? AND vote_type = ?", targetID, models.VoteUp).Count(&up).Error; err != nil {
		return 0, storeErr(err)
	}
	if err := tx.Model(&models.Vote{}).Where(column+" = ? AND vote_type = ?", targetID, models.VoteDown).Count(&down).Error; err != nil {
		return 0, storeErr(err)
	}

	score := int(up - down)

	var err error
	if isAnswer {
		err = tx.Model(&models.Answer{}).Where("id = ?", targetID).Update("vote_score", score).Error
	} else {
		err = tx.Model(&models.Question{}).Where("id = ?", targetID).Update("vote_score", score).Error
	}
	if err != nil {
		return 0, storeErr(err)
	}

	return score, nil
}

// checkTarget verifies the voted-on row exists, mapping a missing row to
// ErrNotFound.
func checkTarget(tx *gorm.DB, target VoteTarget) error {
	var err error
	if id, ok := target.Question(); ok {
		err = tx.First(&models.Question{}, id).Error
	} else {
		id, _ := target.Answer()
		err = tx.First(&models.Answer{}, id).Error
	}
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return storeErr(err)
	}
	return nil
}

func voteQuery(tx *gorm.DB, actorID int, target VoteTarget) *gorm.DB {
	q := tx.Where("user_id = ?", actorID)
	if id, ok := target.Question(); ok {
		return q.Where("question_id = ?", id)
	}
	id, _ := target.Answer()
	return q.Where("answer_id = ?", id)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
