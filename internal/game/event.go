package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeSpawn
	EventTypeKill
	EventTypePlayerHit
	EventTypeAnswer
	EventTypeNestHit
	EventTypeLifeLost
	EventTypeGameOver
	EventTypeLevelComplete
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	Frame     uint64    `json:"frame"`     // Scene frame this occurred in
	GameID    string    `json:"gameId"`    // Source container (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeSpawn:
		return "spawn"
	case EventTypeKill:
		return "kill"
	case EventTypePlayerHit:
		return "player_hit"
	case EventTypeAnswer:
		return "answer"
	case EventTypeNestHit:
		return "nest_hit"
	case EventTypeLifeLost:
		return "life_lost"
	case EventTypeGameOver:
		return "game_over"
	case EventTypeLevelComplete:
		return "level_complete"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// SpawnPayload records where an enemy or answer entered the playfield
type SpawnPayload struct {
	ActorID  int     `json:"actorId"`
	Category string  `json:"category"`
	Lane     int     `json:"lane"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Label    string  `json:"label,omitempty"`
}

// KillPayload contains kill event details
type KillPayload struct {
	EnemyID      int `json:"enemyId"`
	ProjectileID int `json:"projectileId"`
	Lane         int `json:"lane"`
	Reward       int `json:"reward"`
	Score        int `json:"score"`
	Kills        int `json:"kills"`
}

// PlayerHitPayload contains damage event details
type PlayerHitPayload struct {
	SourceID int    `json:"sourceId"`
	Cause    string `json:"cause"` // "projectile" or "contact"
	Damage   int    `json:"damage"`
	Energy   int    `json:"energy"`
	Lives    int    `json:"lives"`
}

// AnswerPayload records a resolved question
type AnswerPayload struct {
	Prompt  string `json:"prompt"`
	Given   string `json:"given"` // empty for a miss
	Correct bool   `json:"correct"`
	Score   int    `json:"score"`
	Energy  int    `json:"energy"`
}

// NestHitPayload records a base impact on a lane
type NestHitPayload struct {
	Lane      int    `json:"lane"`
	Cause     string `json:"cause"` // "projectile" or "breach"
	Cancelled int    `json:"cancelled"`
}

// LifeLostPayload records a life loss
type LifeLostPayload struct {
	Lives int `json:"lives"`
}

// FinishPayload records a terminal transition
type FinishPayload struct {
	Outcome  string `json:"outcome"`
	Score    int    `json:"score"`
	Kills    int    `json:"kills"`
	Mistakes int    `json:"mistakes"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, frame uint64, gameID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Frame:     frame,
		GameID:    gameID,
		Payload:   EncodePayload(payload),
	}
}
