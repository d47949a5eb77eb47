package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"edu-arcade/internal/game"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultBank []byte

// QuestionBank is the YAML document of a quiz
type QuestionBank struct {
	Name      string          `yaml:"name"`
	Questions []game.Question `yaml:"questions"`
}

// DefaultQuestions returns the built-in EduSpace bank
func DefaultQuestions() []game.Question {
	qs, err := ParseQuestions(defaultBank)
	if err != nil {
		panic(fmt.Sprintf("built-in question bank: %v", err))
	}
	return qs
}

// LoadQuestions reads a question bank. An empty path returns the built-in bank.
func LoadQuestions(path string) ([]game.Question, error) {
	if path == "" {
		return DefaultQuestions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank %s: %w", path, err)
	}
	qs, err := ParseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("invalid question bank in %s: %w", path, err)
	}
	return qs, nil
}

// ParseQuestions decodes and validates a bank
func ParseQuestions(data []byte) ([]game.Question, error) {
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank YAML: %w", err)
	}
	if len(bank.Questions) == 0 {
		return nil, game.ErrEmptyQuestionBank
	}

	for i := range bank.Questions {
		q := &bank.Questions[i]
		q.Prompt = strings.TrimSpace(q.Prompt)
		if q.Prompt == "" {
			return nil, fmt.Errorf("question %d: prompt is required", i)
		}
		for j, a := range q.Answers {
			if strings.TrimSpace(a.Content) == "" && a.Image == "" {
				return nil, fmt.Errorf("question %d, answer %d: content or image is required", i, j)
			}
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	return bank.Questions, nil
}
