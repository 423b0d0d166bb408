package engine

import "fmt"

// VoteTarget identifies the question or answer a vote lands on. The two
// constructors are the only way to build one, so "exactly one reference"
// holds structurally instead of by runtime convention.
type VoteTarget struct {
	questionID int
	answerID   int
}

func QuestionTarget(questionID int) VoteTarget {
	return VoteTarget{questionID: questionID}
}

func AnswerTarget(answerID int) VoteTarget {
	return VoteTarget{answerID: answerID}
}

// Question reports the question reference, if this target is a question.
func (t VoteTarget) Question() (int, bool) {
	return t.questionID, t.questionID != 0
}

// Answer reports the answer reference, if this target is an answer.
func (t VoteTarget) Answer() (int, bool) {
	return t.answerID, t.answerID != 0
}

func (t VoteTarget) valid() bool {
	return (t.questionID != 0) != (t.answerID != 0)
}

func (t VoteTarget) String() string {
	if id, ok := t.Question(); ok {
		return fmt.Sprintf("question %d", id)
	}
	if id, ok := t.Answer(); ok {
		return fmt.Sprintf("answer %d", id)
	}
	return "empty target"
}
