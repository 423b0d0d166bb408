package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

var (
	testDBOnce sync.Once
	testDB     *gorm.DB
	testDBErr  error
)

// setupTestDB starts one postgres container for the whole package and hands
// each test a truncated database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	testDBOnce.Do(func() {
		ctx := context.Background()

		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("stackit_test"),
			tcpostgres.WithUsername("stackit"),
			tcpostgres.WithPassword("stackit"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		if err != nil {
			testDBErr = err
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testDBErr = err
			return
		}

		db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			testDBErr = err
			return
		}

		testDBErr = db.AutoMigrate(
			&models.User{},
			&models.Question{},
			&models.Answer{},
			&models.Vote{},
			&models.Notification{},
		)
		testDB = db
	})
	require.NoError(t, testDBErr)

	err := testDB.Exec("TRUNCATE users, questions, answers, votes, notifications RESTART IDENTITY CASCADE").Error
	require.NoError(t, err)

	return testDB
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createQuestion(t *testing.T, db *gorm.DB, authorID int, title string) models.Question {
	t.Helper()
	question := models.Question{
		Title:       title,
		Description: "how does this work?",
		AuthorID:    authorID,
	}
	require.NoError(t, db.Create(&question).Error)
	return question
}

func notificationsFor(t *testing.T, db *gorm.DB, userID int) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).Order("id").Find(&out).Error)
	return out
}

func TestCastVoteIdempotentOverwrite(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	question := createQuestion(t, db, alice.ID, "Locking in postgres")
	posted, err := eng.PostAnswer(ctx, bob.ID, question.ID, "use advisory locks")
	require.NoError(t, err)
	answer := posted.Answer

	// Same actor flips direction three times; only the latest counts.
	for _, direction := range []string{models.VoteUp, models.VoteDown, models.VoteUp} {
		_, err := eng.CastVote(ctx, alice.ID, AnswerTarget(answer.ID), direction)
		require.NoError(t, err)
	}

	var votes []models.Vote
	require.NoError(t, db.Where("user_id = ? AND answer_id = ?", alice.ID, answer.ID).Find(&votes).Error)
	require.Len(t, votes, 1)
	assert.Equal(t, models.VoteUp, votes[0].VoteType)

	var reloaded models.Answer
	require.NoError(t, db.First(&reloaded, answer.ID).Error)
	assert.Equal(t, 1, reloaded.VoteScore, "score is recounted, not accumulated")
}

func TestCastVoteScoreIsFullRecount(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	question := createQuestion(t, db, author.ID, "Recount semantics")

	var outcome VoteOutcome
	for i := 0; i < 3; i++ {
		voter := createUser(t, db, fmt.Sprintf("upvoter%d", i))
		var err error
		outcome, err = eng.CastVote(ctx, voter.ID, QuestionTarget(question.ID), models.VoteUp)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, outcome.NewScore)

	downer := createUser(t, db, "downvoter")
	outcome, err := eng.CastVote(ctx, downer.ID, QuestionTarget(question.ID), models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.NewScore)

	var reloaded models.Question
	require.NoError(t, db.First(&reloaded, question.ID).Error)
	assert.Equal(t, 2, reloaded.VoteScore)
}

func TestCastVoteInputValidation(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	user := createUser(t, db, "val")
	question := createQuestion(t, db, user.ID, "Validation")

	_, err := eng.CastVote(ctx, user.ID, QuestionTarget(question.ID), "sideways")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = eng.CastVote(ctx, user.ID, VoteTarget{}, models.VoteUp)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = eng.CastVote(ctx, user.ID, QuestionTarget(9999), models.VoteUp)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = eng.CastVote(ctx, user.ID, AnswerTarget(9999), models.VoteUp)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptAnswerSwap(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	helper := createUser(t, db, "helper")
	question := createQuestion(t, db, asker.ID, "Which answer wins?")

	first, err := eng.PostAnswer(ctx, helper.ID, question.ID, "first try")
	require.NoError(t, err)
	second, err := eng.PostAnswer(ctx, helper.ID, question.ID, "better try")
	require.NoError(t, err)

	outcome, err := eng.AcceptAnswer(ctx, asker.ID, question.ID, first.Answer.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)

	// Accepting the second answer clears the first atomically.
	outcome, err = eng.AcceptAnswer(ctx, asker.ID, question.ID, second.Answer.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)

	var answers []models.Answer
	require.NoError(t, db.Where("question_id = ? AND is_accepted = ?", question.ID, true).Find(&answers).Error)
	require.Len(t, answers, 1, "at most one accepted answer per question")
	assert.Equal(t, second.Answer.ID, answers[0].ID)

	var reloaded models.Question
	require.NoError(t, db.First(&reloaded, question.ID).Error)
	require.NotNil(t, reloaded.AcceptedAnswerID)
	assert.Equal(t, second.Answer.ID, *reloaded.AcceptedAnswerID)
}

func TestAcceptAnswerIdempotent(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	helper := createUser(t, db, "helper")
	question := createQuestion(t, db, asker.ID, "Idempotent accept")
	posted, err := eng.PostAnswer(ctx, helper.ID, question.ID, "the answer")
	require.NoError(t, err)

	outcome, err := eng.AcceptAnswer(ctx, asker.ID, question.ID, posted.Answer.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)

	outcome, err = eng.AcceptAnswer(ctx, asker.ID, question.ID, posted.Answer.ID)
	require.NoError(t, err)
	assert.False(t, outcome.Changed, "second accept is a no-op success")

	var accepted int64
	require.NoError(t, db.Model(&models.Answer{}).Where("question_id = ? AND is_accepted = ?", question.ID, true).Count(&accepted).Error)
	assert.EqualValues(t, 1, accepted)
}

func TestAcceptAnswerAuthorization(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	helper := createUser(t, db, "helper")
	stranger := createUser(t, db, "stranger")
	question := createQuestion(t, db, asker.ID, "Who may accept?")
	other := createQuestion(t, db, asker.ID, "A different question")
	posted, err := eng.PostAnswer(ctx, helper.ID, question.ID, "an answer")
	require.NoError(t, err)

	_, err = eng.AcceptAnswer(ctx, stranger.ID, question.ID, posted.Answer.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = eng.AcceptAnswer(ctx, asker.ID, question.ID, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = eng.AcceptAnswer(ctx, asker.ID, 9999, posted.Answer.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Answer belonging to another question reads as not found.
	_, err = eng.AcceptAnswer(ctx, asker.ID, other.ID, posted.Answer.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

// Full engagement walk-through: answer notification, upvote notification,
// accept without notification.
func TestEngagementScenario(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	userA := createUser(t, db, "usera")
	userB := createUser(t, db, "userb")
	question := createQuestion(t, db, userA.ID, "How do goroutines work?")

	posted, err := eng.PostAnswer(ctx, userB.ID, question.ID, "They are green threads.")
	require.NoError(t, err)
	require.Len(t, posted.NotificationIDs, 1)

	forA := notificationsFor(t, db, userA.ID)
	require.Len(t, forA, 1)
	assert.Equal(t, models.NotificationTypeAnswer, forA[0].Type)
	assert.Equal(t, "New answer to your question", forA[0].Title)
	assert.Equal(t, `Someone answered your question "How do goroutines work?"`, forA[0].Message)
	require.NotNil(t, forA[0].QuestionID)
	assert.Equal(t, question.ID, *forA[0].QuestionID)
	require.NotNil(t, forA[0].AnswerID)
	assert.Equal(t, posted.Answer.ID, *forA[0].AnswerID)

	outcome, err := eng.CastVote(ctx, userA.ID, AnswerTarget(posted.Answer.ID), models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.NewScore)

	forB := notificationsFor(t, db, userB.ID)
	require.Len(t, forB, 1)
	assert.Equal(t, models.NotificationTypeUpvote, forB[0].Type)
	assert.Equal(t, "Your answer was upvoted", forB[0].Title)
	assert.Equal(t, `Someone upvoted your answer to "How do goroutines work?"`, forB[0].Message)

	var before int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&before).Error)

	_, err = eng.AcceptAnswer(ctx, userA.ID, question.ID, posted.Answer.ID)
	require.NoError(t, err)

	var after int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&after).Error)
	assert.Equal(t, before, after, "acceptance emits no notification")

	var answer models.Answer
	require.NoError(t, db.First(&answer, posted.Answer.ID).Error)
	assert.True(t, answer.IsAccepted)
}

func TestSelfActionsDoNotNotify(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	solo := createUser(t, db, "solo")
	question := createQuestion(t, db, solo.ID, "Answering myself")

	// Self-answer with a self-mention.
	posted, err := eng.PostAnswer(ctx, solo.ID, question.ID, "Figured it out, thanks @solo")
	require.NoError(t, err)
	assert.Empty(t, posted.NotificationIDs)

	// Upvoting your own answer.
	_, err = eng.CastVote(ctx, solo.ID, AnswerTarget(posted.Answer.ID), models.VoteUp)
	require.NoError(t, err)

	assert.Empty(t, notificationsFor(t, db, solo.ID))
}

func TestMentionFanout(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	question := createQuestion(t, db, asker.ID, "Mention plumbing")

	// Repeated mentions in one answer fire once per occurrence, and
	// unresolvable usernames are dropped silently.
	posted, err := eng.PostAnswer(ctx, carol.ID, question.ID, "@bob thanks, @bob really, also @ghost")
	require.NoError(t, err)

	forBob := notificationsFor(t, db, bob.ID)
	require.Len(t, forBob, 2)
	for _, n := range forBob {
		assert.Equal(t, models.NotificationTypeMention, n.Type)
		assert.Equal(t, "You were mentioned in an answer", n.Title)
		assert.Equal(t, `@carol mentioned you in an answer to "Mention plumbing"`, n.Message)
	}

	// answer notification for the asker + two mentions for bob
	require.Len(t, posted.NotificationIDs, 3)

	// A second answer with the same content fires independently.
	_, err = eng.PostAnswer(ctx, carol.ID, question.ID, "@bob thanks, @bob really, also @ghost")
	require.NoError(t, err)
	assert.Len(t, notificationsFor(t, db, bob.ID), 4)
}

func TestUpvoteNotificationFiresOnRevote(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")
	question := createQuestion(t, db, asker.ID, "Revote behavior")
	posted, err := eng.PostAnswer(ctx, author.ID, question.ID, "an answer")
	require.NoError(t, err)

	// up -> down -> up: each up fires, the down does not.
	for _, direction := range []string{models.VoteUp, models.VoteDown, models.VoteUp} {
		_, err := eng.CastVote(ctx, voter.ID, AnswerTarget(posted.Answer.ID), direction)
		require.NoError(t, err)
	}

	var upvoteNotifications int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", author.ID, models.NotificationTypeUpvote).
		Count(&upvoteNotifications).Error)
	assert.EqualValues(t, 2, upvoteNotifications)

	var reloaded models.Answer
	require.NoError(t, db.First(&reloaded, posted.Answer.ID).Error)
	assert.Equal(t, 1, reloaded.VoteScore)
}

func TestNotificationReadFlow(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	helper := createUser(t, db, "helper")
	question := createQuestion(t, db, asker.ID, "Read tracking")

	_, err := eng.PostAnswer(ctx, helper.ID, question.ID, "answer one")
	require.NoError(t, err)
	_, err = eng.PostAnswer(ctx, helper.ID, question.ID, "answer two")
	require.NoError(t, err)

	count, err := eng.UnreadCount(ctx, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	notifications, err := eng.Notifications(ctx, asker.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	// Marking one read only touches the recipient's own record.
	require.NoError(t, eng.MarkRead(ctx, asker.ID, notifications[0].ID))

	count, err = eng.UnreadCount(ctx, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A non-owner call is a silent no-op.
	require.NoError(t, eng.MarkRead(ctx, helper.ID, notifications[1].ID))
	count, err = eng.UnreadCount(ctx, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.ErrorIs(t, eng.MarkRead(ctx, asker.ID, 9999), ErrNotFound)

	require.NoError(t, eng.MarkAllRead(ctx, asker.ID))
	count, err = eng.UnreadCount(ctx, asker.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestConcurrentVotesSingleRow(t *testing.T) {
	db := setupTestDB(t)
	eng := New(db)
	ctx := context.Background()

	asker := createUser(t, db, "asker")
	voter := createUser(t, db, "voter")
	question := createQuestion(t, db, asker.ID, "Race on first vote")

	// Concurrent first votes by the same actor: the unique constraint plus
	// the single retry means every call succeeds and one row remains.
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.CastVote(ctx, voter.ID, QuestionTarget(question.ID), models.VoteUp)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	var votes int64
	require.NoError(t, db.Model(&models.Vote{}).Where("user_id = ? AND question_id = ?", voter.ID, question.ID).Count(&votes).Error)
	assert.EqualValues(t, 1, votes)

	var reloaded models.Question
	require.NoError(t, db.First(&reloaded, question.ID).Error)
	assert.Equal(t, 1, reloaded.VoteScore)
}
