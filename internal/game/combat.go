package game

import (
	"fmt"
	"log"
)

// Effect colors
const (
	colorReward  = "#FFD700"
	colorPenalty = "#FF4444"
	colorHit     = "#FF8800"
	colorNest    = "#66CCFF"
)

// apply consumes one collision result. Hit-boxes involved were already
// disabled by the resolver, so everything here may play animations or schedule
// delayed cleanup freely.
func (s *Scene) apply(r Resolution) {
	switch r.Kind {
	case ResolutionEnemyKilled:
		s.explode(r.Source)
		s.killEnemy(r.Target, true)

	case ResolutionPlayerHit:
		s.explode(r.Source)
		s.hitPlayer(r.Source.ID, "projectile", s.cfg.EnemyShot.Damage)

	case ResolutionShotAbsorbed:
		s.explode(r.Source)

	case ResolutionPlayerRammed:
		s.killEnemy(r.Target, false)
		s.hitPlayer(r.Target.ID, "contact", s.cfg.Enemy.ContactDamage)

	case ResolutionNestHit:
		s.explode(r.Source)
		s.baseHit(r.Lane, "projectile")

	case ResolutionEnemyBreach:
		s.breach(r.Target)

	case ResolutionAnswerCollected:
		s.collect(r.Target)
	}
}

// killEnemy moves an enemy to Dying. Its hit-box is off, its AI timers are
// cancelled and its in-flight projectiles explode. It returns to the pool
// after the death animation.
func (s *Scene) killEnemy(a *Actor, reward bool) {
	e := a.Enemy
	if e == nil || e.State == BehaviorDying || e.State == BehaviorDead {
		return
	}
	e.State = BehaviorDying
	a.Alive = false
	a.DisableHitbox()
	a.VX, a.VY = 0, 0
	a.timers.CancelAll()
	s.cascade(a)

	a.Play(s.backend, s.cfg.Enemy.DeathAnimation, func() {
		e.State = BehaviorDead
		a.MarkRelease()
	})

	s.fx.flash(a.X, a.Y, colorHit, 2)
	if !reward {
		return
	}

	s.stats.Kills++
	s.observer.ObserveKill(s.cfg.Mode)

	// the event reports the score change actually applied, quiz or not
	before := s.ledger.Score()
	if s.quiz != nil && a.Answer != nil {
		s.resolveAnswer(a.Answer, a.X, a.Y)
	} else {
		s.ledger.AddScore(s.cfg.Enemy.KillReward)
		s.fx.text(a.X, a.Y, fmt.Sprintf("+%d", s.cfg.Enemy.KillReward), colorReward)
	}

	s.emit(EventTypeKill, KillPayload{
		EnemyID: a.ID,
		Lane:    a.Lane,
		Reward:  s.ledger.Score() - before,
		Score:   s.ledger.Score(),
		Kills:   s.stats.Kills,
	})
}

// hitPlayer applies damage unless the player is in its grace window.
func (s *Scene) hitPlayer(sourceID int, cause string, damage int) {
	d, applied := s.player.Hit(damage, s.ledger)
	if !applied {
		return
	}
	s.stats.PlayerHits++

	pa := s.player.actor
	s.fx.flash(pa.X, pa.Y, colorPenalty, 3)
	s.fx.text(pa.X, pa.Y, fmt.Sprintf("-%d", damage), colorPenalty)
	s.emit(EventTypePlayerHit, PlayerHitPayload{
		SourceID: sourceID,
		Cause:    cause,
		Damage:   damage,
		Energy:   s.ledger.Energy(),
		Lives:    s.ledger.Lives(),
	})
	s.handleDepletion(d)
}

// handleDepletion turns a ledger depletion into a life loss or game over
func (s *Scene) handleDepletion(d Depletion) {
	switch d {
	case DepletionLifeLost:
		s.fx.shake.Start(8)
		s.emit(EventTypeLifeLost, LifeLostPayload{Lives: s.ledger.Lives()})
		log.Printf("💔 Scene %s lost a life (%d left)", s.id, s.ledger.Lives())
	case DepletionGameOver:
		s.finish(StateGameOver)
	}
}

// baseHit is a nest impact on a lane. It always costs the wrong-answer
// penalties, cancels the lane's in-flight player projectiles and, in quiz
// play, settles the open question as missed.
func (s *Scene) baseHit(laneIndex int, cause string) {
	cancelled := 0
	if laneIndex >= 0 && laneIndex < len(s.lanes) {
		cancelled = s.lanes[laneIndex].cancelPlayerShots()
	}
	s.stats.NestHits++
	s.emit(EventTypeNestHit, NestHitPayload{Lane: laneIndex, Cause: cause, Cancelled: cancelled})

	x, y := s.mapper.NestX(), s.mapper.LaneY(laneIndex)
	s.fx.flash(x, y, colorNest, 3)
	s.fx.shake.Start(6)

	if s.quiz != nil && !s.quiz.Resolved() && !s.quiz.Finished() {
		s.resolveAnswer(nil, x, y)
		return
	}
	s.penalize(x, y)
}

// breach handles an enemy reaching the nest alive. The enemy is done at once
// (no death animation) and the lane takes a base hit.
func (s *Scene) breach(a *Actor) {
	e := a.Enemy
	if e == nil || e.State == BehaviorDying || e.State == BehaviorDead {
		return
	}
	e.Breached = true
	e.State = BehaviorDead
	a.Alive = false
	a.VX, a.VY = 0, 0
	a.DisableHitbox()
	a.timers.CancelAll()
	s.cascade(a)
	a.MarkRelease()

	s.stats.Breaches++
	s.baseHit(a.Lane, "breach")
}

// penalize applies both wrong-answer knobs
func (s *Scene) penalize(x, y float64) {
	q := s.cfg.Quiz
	if q.WrongScorePenalty > 0 {
		s.ledger.AddScore(-q.WrongScorePenalty)
		s.fx.text(x, y, fmt.Sprintf("-%d", q.WrongScorePenalty), colorPenalty)
	}
	s.handleDepletion(s.ledger.RemoveEnergy(q.WrongEnergyPenalty))
}
