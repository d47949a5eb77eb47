package game

import (
	"time"

	"edu-arcade/internal/game/layout"
)

// spawnEnemy is the spawner's action. Lane games fill a random empty lane;
// arena games enter from the right edge at a random height.
func (s *Scene) spawnEnemy() bool {
	if s.state != StatePlaying {
		return false
	}

	if s.laneGame() {
		free := make([]int, 0, len(s.lanes))
		for _, lane := range s.lanes {
			if lane.Slot() == SlotEmpty {
				free = append(free, lane.Index)
			}
		}
		if len(free) == 0 {
			return false
		}
		return s.spawnInLane(free[s.rng.Intn(len(free))]) != nil
	}

	a := s.enemies.Acquire()
	if a == nil {
		return false
	}
	a.Enemy.Direction = -1
	s.launchEnemy(a, s.mapper.SpawnPoint(layout.EdgeRight, 0.15+0.7*s.rng.Float64()))
	return true
}

// spawnInLane puts a new enemy at the start of an empty lane
func (s *Scene) spawnInLane(i int) *Actor {
	lane := s.lanes[i]
	if lane.Slot() != SlotEmpty {
		return nil
	}
	a := s.enemies.Acquire()
	if a == nil {
		return nil
	}
	lane.assign(a)
	a.Enemy.Direction = 1

	if s.quiz != nil && !s.quiz.Resolved() {
		if q, ok := s.quiz.Current(); ok {
			labelEnemy(a, q, i)
		}
	}

	p := s.mapper.SpawnPoint(layout.EdgeLeft, 0)
	p.Y = s.mapper.LaneY(i)
	s.launchEnemy(a, p)
	return a
}

// launchEnemy spawns an enemy walking and starts its choose-action loop
func (s *Scene) launchEnemy(a *Actor, p layout.Point) {
	e := a.Enemy
	jitter := s.cfg.Enemy.SpeedJitter
	e.DesignSpeed = s.cfg.Enemy.Speed * (1 + jitter*(2*s.rng.Float64()-1))
	e.Previous = BehaviorWalking

	a.Spawn(p.X, p.Y, 0, 0)
	s.setBehavior(a, BehaviorWalking)
	a.Every(func() time.Duration {
		return uniformDelay(s.rng, s.cfg.Enemy.ChooseMin, s.cfg.Enemy.ChooseMax)
	}, func() {
		s.chooseAction(a)
	})

	s.stats.Spawns++
	s.observer.ObserveSpawn(s.cfg.Mode, CategoryEnemy)
	s.emit(EventTypeSpawn, SpawnPayload{
		ActorID:  a.ID,
		Category: a.Category.String(),
		Lane:     a.Lane,
		X:        p.X,
		Y:        p.Y,
		Label:    a.Label,
	})
}

// chooseAction is one tick of an enemy's AI loop. A throw in progress is left
// to finish.
func (s *Scene) chooseAction(a *Actor) {
	e := a.Enemy
	switch e.State {
	case BehaviorDying, BehaviorDead, BehaviorThrowing:
		return
	}
	next := rollBehavior(s.rng, s.cfg.Enemy.Weights, e.Previous)
	e.Previous = next
	s.setBehavior(a, next)
}

func (s *Scene) setBehavior(a *Actor, b Behavior) {
	e := a.Enemy
	e.State = b

	switch b {
	case BehaviorWalking:
		speed := s.mapper.Speed(e.DesignSpeed)
		a.VX, a.VY = e.Direction*speed, 0
		if !s.laneGame() {
			a.VY = (2*s.rng.Float64() - 1) * speed * 0.5
		}
		a.Play(s.backend, s.cfg.Enemy.Texture+"_walk", nil)

	case BehaviorIdle:
		a.VX, a.VY = 0, 0
		a.Play(s.backend, s.cfg.Enemy.Texture+"_idle", nil)

	case BehaviorThrowing:
		a.VX, a.VY = 0, 0
		a.Play(s.backend, s.cfg.Enemy.ThrowAnimation, func() {
			if e.State != BehaviorThrowing {
				return
			}
			s.fireEnemyShot(a)
			s.setBehavior(a, BehaviorIdle)
		})
	}
}

// labelEnemy shows answer i of q on a lane enemy
func labelEnemy(a *Actor, q Question, i int) {
	if i >= len(q.Answers) {
		a.Answer = nil
		a.Label = ""
		return
	}
	ans := q.Answers[i]
	a.Answer = &ans
	a.Label = ans.Content
}
