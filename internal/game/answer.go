package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
)

// ErrEmptyQuestionBank is returned when a quiz game has no questions.
var ErrEmptyQuestionBank = errors.New("question bank is empty")

// Answer is one option of a question
type Answer struct {
	Content string `json:"content" yaml:"content"`
	Image   string `json:"image,omitempty" yaml:"image,omitempty"` // texture key, optional
	Correct bool   `json:"correct" yaml:"correct"`
}

// Question is a prompt with exactly one correct answer
type Question struct {
	Prompt  string   `json:"prompt" yaml:"prompt"`
	Answers []Answer `json:"answers" yaml:"answers"`
}

// Validate checks the one-correct-answer rule
func (q Question) Validate() error {
	if len(q.Answers) < 2 {
		return fmt.Errorf("question %q needs at least two answers", q.Prompt)
	}
	correct := 0
	for _, a := range q.Answers {
		if a.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("question %q has %d correct answers, want 1", q.Prompt, correct)
	}
	return nil
}

// CorrectAnswer returns the correct option
func (q Question) CorrectAnswer() Answer {
	for _, a := range q.Answers {
		if a.Correct {
			return a
		}
	}
	return Answer{}
}

// Mistake records a wrongly answered or missed question
type Mistake struct {
	Prompt  string `json:"prompt" msgpack:"prompt"`
	Given   string `json:"given" msgpack:"given"` // empty for a timeout or base hit
	Correct string `json:"correct" msgpack:"correct"`
}

// Quiz walks through a question list. Each question resolves exactly once.
type Quiz struct {
	questions []Question
	index     int
	resolved  bool
	correct   int
	mistakes  []Mistake
}

// NewQuiz creates a quiz over the given questions
func NewQuiz(questions []Question) (*Quiz, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyQuestionBank
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	return &Quiz{questions: questions}, nil
}

// Current returns the active question
func (q *Quiz) Current() (Question, bool) {
	if q.index >= len(q.questions) {
		return Question{}, false
	}
	return q.questions[q.index], true
}

// Index returns the zero-based number of the active question
func (q *Quiz) Index() int {
	return q.index
}

// Len returns the number of questions
func (q *Quiz) Len() int {
	return len(q.questions)
}

// Resolved reports whether the active question already has an outcome
func (q *Quiz) Resolved() bool {
	return q.resolved
}

// Resolve settles the active question with an answer. ok is false when the
// question was already resolved, so stray collisions in the same frame are
// ignored.
func (q *Quiz) Resolve(a Answer) (correct bool, ok bool) {
	cur, exists := q.Current()
	if !exists || q.resolved {
		return false, false
	}
	q.resolved = true
	if a.Correct {
		q.correct++
		return true, true
	}
	q.mistakes = append(q.mistakes, Mistake{
		Prompt:  cur.Prompt,
		Given:   a.Content,
		Correct: cur.CorrectAnswer().Content,
	})
	return false, true
}

// Miss settles the active question as wrong without an answer (timeout or base hit)
func (q *Quiz) Miss() bool {
	_, ok := q.Resolve(Answer{})
	return ok
}

// Advance moves to the next question. It only moves past a resolved question,
// so calling it twice for one resolution is a no-op. Returns false when the
// quiz is finished.
func (q *Quiz) Advance() bool {
	if q.resolved {
		q.index++
		q.resolved = false
	}
	return q.index < len(q.questions)
}

// Finished reports whether every question was answered
func (q *Quiz) Finished() bool {
	return q.index >= len(q.questions)
}

// CorrectCount returns the number of correct answers
func (q *Quiz) CorrectCount() int {
	return q.correct
}

// Mistakes returns a copy of the mistake list
func (q *Quiz) Mistakes() []Mistake {
	out := make([]Mistake, len(q.mistakes))
	copy(out, q.mistakes)
	return out
}

// Restart rewinds the quiz, optionally shuffling the question order
func (q *Quiz) Restart(rng *rand.Rand) {
	q.index = 0
	q.resolved = false
	q.correct = 0
	q.mistakes = nil
	if rng != nil {
		rng.Shuffle(len(q.questions), func(i, j int) {
			q.questions[i], q.questions[j] = q.questions[j], q.questions[i]
		})
	}
}

// MultiplicationQuestions builds "table × k" questions for k = 1..10 in random
// order, each with `options` distinct answers of which exactly one is correct.
func MultiplicationQuestions(table, options int, rng *rand.Rand) []Question {
	if options < 2 {
		options = 2
	}
	if table < 1 {
		table = 1
	}

	factors := rng.Perm(10)
	questions := make([]Question, 0, len(factors))
	for _, f := range factors {
		k := f + 1
		product := table * k

		candidates := []int{
			table * (k - 1), table * (k + 1), product + 1, product - 1,
			product + table + 1, product + 2, product - 2, (table + 1) * k,
		}
		seen := map[int]bool{product: true}
		answers := []Answer{{Content: strconv.Itoa(product), Correct: true}}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, c := range candidates {
			if len(answers) == options {
				break
			}
			if c <= 0 || seen[c] {
				continue
			}
			seen[c] = true
			answers = append(answers, Answer{Content: strconv.Itoa(c)})
		}
		for next := product + 3; len(answers) < options; next++ {
			if !seen[next] {
				seen[next] = true
				answers = append(answers, Answer{Content: strconv.Itoa(next)})
			}
		}

		rng.Shuffle(len(answers), func(i, j int) {
			answers[i], answers[j] = answers[j], answers[i]
		})
		questions = append(questions, Question{
			Prompt:  fmt.Sprintf("%d × %d", table, k),
			Answers: answers,
		})
	}
	return questions
}
