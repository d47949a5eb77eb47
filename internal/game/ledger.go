package game

// Depletion is what an energy removal led to
type Depletion uint8

const (
	DepletionNone Depletion = iota
	DepletionLifeLost
	DepletionGameOver
)

// String returns the depletion name
func (d Depletion) String() string {
	switch d {
	case DepletionLifeLost:
		return "life_lost"
	case DepletionGameOver:
		return "game_over"
	default:
		return "none"
	}
}

// Ledger tracks score, energy and lives.
//
// Score may go negative internally but is displayed floored at zero. Energy is
// clamped to [0, max]. Energy reaching zero costs one life (energy is refilled)
// or, on the last life, ends the game. A depletion is processed at most once per
// frame, and once the ledger is terminal every mutation is ignored.
type Ledger struct {
	score     int
	energy    int
	maxEnergy int
	lives     int
	maxLives  int

	terminal      bool
	frame         uint64
	depletedFrame uint64
	depleted      bool
}

// NewLedger creates a ledger from config
func NewLedger(cfg LedgerConfig) *Ledger {
	l := &Ledger{}
	l.Reset(cfg)
	return l
}

// Reset restores the starting values
func (l *Ledger) Reset(cfg LedgerConfig) {
	maxEnergy := cfg.MaxEnergy
	if maxEnergy < 1 {
		maxEnergy = 100
	}
	maxLives := cfg.MaxLives
	if maxLives < cfg.Lives {
		maxLives = cfg.Lives
	}
	*l = Ledger{
		energy:    clampInt(cfg.StartEnergy, 0, maxEnergy),
		maxEnergy: maxEnergy,
		lives:     clampInt(cfg.Lives, 1, maxLives),
		maxLives:  maxLives,
	}
	if cfg.StartEnergy == 0 {
		l.energy = maxEnergy
	}
}

// BeginFrame opens a new frame for the re-entrancy guard
func (l *Ledger) BeginFrame(frame uint64) {
	l.frame = frame
}

// AddScore applies a score delta (negative for penalties)
func (l *Ledger) AddScore(delta int) {
	if l.terminal {
		return
	}
	l.score += delta
}

// Score returns the raw score
func (l *Ledger) Score() int {
	return l.score
}

// DisplayScore returns the score floored at zero
func (l *Ledger) DisplayScore() int {
	if l.score < 0 {
		return 0
	}
	return l.score
}

// Energy returns the current energy
func (l *Ledger) Energy() int {
	return l.energy
}

// MaxEnergy returns the energy cap
func (l *Ledger) MaxEnergy() int {
	return l.maxEnergy
}

// Lives returns the remaining lives
func (l *Ledger) Lives() int {
	return l.lives
}

// Terminal reports whether the ledger stopped accepting changes
func (l *Ledger) Terminal() bool {
	return l.terminal
}

// Seal makes the ledger terminal without a depletion (level complete)
func (l *Ledger) Seal() {
	l.terminal = true
}

// RemoveEnergy subtracts energy. When energy reaches zero it returns exactly
// one LifeLost or GameOver for the depleting event.
//
// Once a frame has depleted, every later call in that frame is dropped and
// returns DepletionNone, including damage too small to deplete the refilled
// energy. A second hit landing in the same frame as a lost life is free.
func (l *Ledger) RemoveEnergy(amount int) Depletion {
	if l.terminal || amount <= 0 {
		return DepletionNone
	}
	if l.depleted && l.depletedFrame == l.frame {
		return DepletionNone
	}

	l.energy = clampInt(l.energy-amount, 0, l.maxEnergy)
	if l.energy > 0 {
		return DepletionNone
	}

	l.depleted = true
	l.depletedFrame = l.frame
	if l.lives <= 1 {
		l.lives = 0
		l.terminal = true
		return DepletionGameOver
	}
	l.lives--
	l.energy = l.maxEnergy
	return DepletionLifeLost
}

// AddEnergy refills energy up to the cap
func (l *Ledger) AddEnergy(amount int) {
	if l.terminal || amount <= 0 {
		return
	}
	l.energy = clampInt(l.energy+amount, 0, l.maxEnergy)
}

// AddLife grants a life up to the cap
func (l *Ledger) AddLife() {
	if l.terminal {
		return
	}
	l.lives = clampInt(l.lives+1, 0, l.maxLives)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
