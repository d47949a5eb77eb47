package config

import (
	"log"

	"edu-arcade/internal/game"
)

// GameData is the YAML-loaded content every host hands the engine
type GameData struct {
	Tuning    Tuning
	Questions []game.Question
}

// LoadGameData reads the tuning and question bank named in paths
func LoadGameData(paths PathsConfig) (GameData, error) {
	tuning, err := LoadTuning(paths.Tuning)
	if err != nil {
		return GameData{}, err
	}
	questions, err := LoadQuestions(paths.QuestionBank)
	if err != nil {
		return GameData{}, err
	}
	if paths.Tuning != "" {
		log.Printf("🎛️ Tuning loaded from %s", paths.Tuning)
	}
	log.Printf("❓ Question bank: %d questions", len(questions))
	return GameData{Tuning: tuning, Questions: questions}, nil
}

// GameEngine builds the engine settings from process config and game data.
// backend may be nil.
func (c EngineConfig) GameEngine(data GameData, backend game.Backend) game.EngineConfig {
	cfg := game.EngineConfig{
		TickRate:    c.TickRate,
		MaxSessions: c.MaxSessions,
		InputQueue:  c.InputQueue,
		InputRate:   c.InputRate,
		InputBurst:  c.InputBurst,
		Questions:   data.Questions,
		Backend:     backend,
	}
	if data.Tuning != nil {
		cfg.Tuning = data.Tuning.For
	}
	return cfg
}
