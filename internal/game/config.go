package game

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects which mini-game a scene runs
type Mode string

const (
	ModeSnowmen  Mode = "snowmen"
	ModeEduSpace Mode = "eduspace"
)

// ErrUnknownMode is returned for a Mode other than the two games.
var ErrUnknownMode = errors.New("unknown game mode")

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSnowmen, ModeEduSpace:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// BehaviorWeights are the relative chances of each enemy action. They do not
// need to add up to 100; a pick is t in [0, Walk+Throw+Idle).
type BehaviorWeights struct {
	Walk  float64 `yaml:"walk"`
	Throw float64 `yaml:"throw"`
	Idle  float64 `yaml:"idle"`
}

// EnemyConfig tunes enemies. Speeds are design-time pixels per second for a
// 1280px wide playfield.
type EnemyConfig struct {
	Texture        string          `yaml:"texture"`
	Width          float64         `yaml:"width"`
	Height         float64         `yaml:"height"`
	Speed          float64         `yaml:"speed"`
	SpeedJitter    float64         `yaml:"speedJitter"` // fraction, 0.1 = ±10%
	ChooseMin      time.Duration   `yaml:"chooseMin"`
	ChooseMax      time.Duration   `yaml:"chooseMax"`
	Weights        BehaviorWeights `yaml:"weights"`
	KillReward     int             `yaml:"killReward"`
	ContactDamage  int             `yaml:"contactDamage"`
	DeathAnimation string          `yaml:"deathAnimation"`
	ThrowAnimation string          `yaml:"throwAnimation"`
}

// ProjectileConfig tunes one projectile family
type ProjectileConfig struct {
	Texture          string        `yaml:"texture"`
	Width            float64       `yaml:"width"`
	Height           float64       `yaml:"height"`
	Speed            float64       `yaml:"speed"`
	Damage           int           `yaml:"damage"`
	PoolSize         int           `yaml:"poolSize"`
	Overflow         int           `yaml:"overflow"`
	Cooldown         time.Duration `yaml:"cooldown"`
	ExplodeAnimation string        `yaml:"explodeAnimation"`
}

// PlayerConfig tunes the player
type PlayerConfig struct {
	Texture         string        `yaml:"texture"`
	Width           float64       `yaml:"width"`
	Height          float64       `yaml:"height"`
	Speed           float64       `yaml:"speed"`
	Invulnerability time.Duration `yaml:"invulnerability"`
}

// SpawnConfig tunes the enemy spawner
type SpawnConfig struct {
	MinDelay time.Duration `yaml:"minDelay"`
	MaxDelay time.Duration `yaml:"maxDelay"`
	// MaxConcurrent is the population cap. Lane games are additionally
	// limited to one enemy per lane.
	MaxConcurrent int `yaml:"maxConcurrent"`
}

// LedgerConfig sets the starting score/energy/lives
type LedgerConfig struct {
	MaxEnergy   int `yaml:"maxEnergy"`
	StartEnergy int `yaml:"startEnergy"`
	Lives       int `yaml:"lives"`
	MaxLives    int `yaml:"maxLives"`
}

// QuizConfig tunes question handling. The score and energy penalties of a
// wrong answer are independent; set either to zero to disable it.
type QuizConfig struct {
	Enabled            bool          `yaml:"enabled"`
	CorrectReward      int           `yaml:"correctReward"`
	WrongScorePenalty  int           `yaml:"wrongScorePenalty"`
	WrongEnergyPenalty int           `yaml:"wrongEnergyPenalty"`
	CorrectDelay       time.Duration `yaml:"correctDelay"`
	WrongDelay         time.Duration `yaml:"wrongDelay"`
	Table              int           `yaml:"table"`     // multiplication table for Snowmen
	Questions          int           `yaml:"questions"` // 0 = whole bank
	AnswerTexture      string        `yaml:"answerTexture"`
	AnswerWidth        float64       `yaml:"answerWidth"`
	AnswerHeight       float64       `yaml:"answerHeight"`
	AnswerSpeed        float64       `yaml:"answerSpeed"`
}

// Config is everything a scene needs. It is copied into the scene; nothing
// is shared between scenes.
type Config struct {
	Mode       Mode             `yaml:"mode"`
	Seed       int64            `yaml:"seed"`
	KillTarget int              `yaml:"killTarget"` // 0 = endless unless a quiz ends the level
	Player     PlayerConfig     `yaml:"player"`
	Enemy      EnemyConfig      `yaml:"enemy"`
	PlayerShot ProjectileConfig `yaml:"playerShot"`
	EnemyShot  ProjectileConfig `yaml:"enemyShot"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Quiz       QuizConfig       `yaml:"quiz"`
}

// DefaultConfig returns the tuning for a mode
func DefaultConfig(mode Mode) Config {
	cfg := Config{
		Mode:       mode,
		KillTarget: 20,
		Player: PlayerConfig{
			Texture:         "player",
			Width:           80,
			Height:          80,
			Speed:           420,
			Invulnerability: 2000 * time.Millisecond,
		},
		Enemy: EnemyConfig{
			Texture:        "snowman",
			Width:          80,
			Height:         90,
			Speed:          60,
			SpeedJitter:    0.15,
			ChooseMin:      2 * time.Second,
			ChooseMax:      6 * time.Second,
			Weights:        BehaviorWeights{Walk: 50, Throw: 30, Idle: 20},
			KillReward:     10,
			ContactDamage:  30,
			DeathAnimation: "snowman_die",
			ThrowAnimation: "snowman_throw",
		},
		PlayerShot: ProjectileConfig{
			Texture:          "snowball",
			Width:            24,
			Height:           24,
			Speed:            700,
			PoolSize:         1,
			Cooldown:         250 * time.Millisecond,
			ExplodeAnimation: "snowball_explode",
		},
		EnemyShot: ProjectileConfig{
			Texture:          "snowball_enemy",
			Width:            24,
			Height:           24,
			Speed:            260,
			Damage:           20,
			PoolSize:         2,
			ExplodeAnimation: "snowball_explode",
		},
		Spawn: SpawnConfig{
			MinDelay:      1500 * time.Millisecond,
			MaxDelay:      4 * time.Second,
			MaxConcurrent: 4,
		},
		Ledger: LedgerConfig{
			MaxEnergy:   100,
			StartEnergy: 100,
			Lives:       3,
			MaxLives:    5,
		},
		Quiz: QuizConfig{
			CorrectReward:      10,
			WrongScorePenalty:  5,
			WrongEnergyPenalty: 20,
			CorrectDelay:       200 * time.Millisecond,
			WrongDelay:         1200 * time.Millisecond,
			Table:              2,
			Questions:          10,
			AnswerTexture:      "answer",
			AnswerWidth:        90,
			AnswerHeight:       60,
			AnswerSpeed:        140,
		},
	}

	if mode == ModeEduSpace {
		cfg.KillTarget = 0
		cfg.Player.Texture = "ship"
		cfg.Player.Width = 90
		cfg.Player.Height = 60
		cfg.Enemy.Texture = "alien"
		cfg.Enemy.Width = 70
		cfg.Enemy.Height = 60
		cfg.Enemy.Speed = 120
		cfg.Enemy.DeathAnimation = "alien_explode"
		cfg.Enemy.ThrowAnimation = "alien_fire"
		cfg.PlayerShot.Texture = "laser"
		cfg.PlayerShot.Width = 30
		cfg.PlayerShot.Height = 10
		cfg.PlayerShot.Speed = 900
		cfg.PlayerShot.PoolSize = 8
		cfg.PlayerShot.Overflow = 2
		cfg.PlayerShot.Cooldown = 200 * time.Millisecond
		cfg.PlayerShot.ExplodeAnimation = "laser_hit"
		cfg.EnemyShot.Texture = "plasma"
		cfg.EnemyShot.Width = 16
		cfg.EnemyShot.Height = 16
		cfg.EnemyShot.Speed = 360
		cfg.EnemyShot.PoolSize = 10
		cfg.EnemyShot.ExplodeAnimation = "plasma_hit"
		cfg.Spawn.MaxConcurrent = 5
		cfg.Quiz.Enabled = true
		cfg.Quiz.Questions = 0
	}

	return cfg
}

// Validate rejects configurations the scene cannot run
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Spawn.MinDelay <= 0 || c.Spawn.MaxDelay < c.Spawn.MinDelay {
		return fmt.Errorf("spawn delay window %v..%v is invalid", c.Spawn.MinDelay, c.Spawn.MaxDelay)
	}
	if c.Spawn.MaxConcurrent < 1 {
		return fmt.Errorf("spawn maxConcurrent must be at least 1, got %d", c.Spawn.MaxConcurrent)
	}
	if c.Enemy.ChooseMin <= 0 || c.Enemy.ChooseMax < c.Enemy.ChooseMin {
		return fmt.Errorf("enemy choose window %v..%v is invalid", c.Enemy.ChooseMin, c.Enemy.ChooseMax)
	}
	w := c.Enemy.Weights
	if w.Walk < 0 || w.Throw < 0 || w.Idle < 0 || w.Walk+w.Throw+w.Idle <= 0 {
		return fmt.Errorf("enemy behavior weights %+v are invalid", w)
	}
	if c.PlayerShot.PoolSize < 1 || c.EnemyShot.PoolSize < 1 {
		return errors.New("projectile pools need at least one slot")
	}
	if c.Ledger.MaxEnergy < 1 || c.Ledger.Lives < 1 {
		return fmt.Errorf("ledger needs positive energy and lives, got %+v", c.Ledger)
	}
	return nil
}
