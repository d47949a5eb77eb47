package game

import "math"

// firePlayerShot launches a player projectile along the player's lane (lane
// games fire toward the enemies on the left) or forward in the arena. The
// request is dropped when the cooldown has not elapsed or the pool has no free
// slot left.
func (s *Scene) firePlayerShot() bool {
	now := s.timers.Now()
	if !s.player.canFire(now, s.cfg.PlayerShot.Cooldown) {
		return false
	}

	pool, dir := s.playerShots, 1.0
	if s.laneGame() {
		pool, dir = s.lanes[s.player.Lane].PlayerShots, -1.0
	}
	shot := pool.Acquire()
	if shot == nil {
		s.stats.Dropped++
		return false
	}

	pa := s.player.actor
	half := s.mapper.Size(s.cfg.Player.Width) / 2
	shot.Fire(pa.X+dir*half, pa.Y, dir*s.mapper.Speed(s.cfg.PlayerShot.Speed), 0, pa.ID)
	s.player.markFired(now)
	s.player.Facing = dir
	return true
}

// fireEnemyShot releases an enemy projectile. Lane enemies throw straight down
// their lane toward the nest; arena enemies aim at the player.
func (s *Scene) fireEnemyShot(a *Actor) {
	pool := s.enemyShots
	if s.laneGame() {
		if a.Lane < 0 || a.Lane >= len(s.lanes) {
			return
		}
		pool = s.lanes[a.Lane].EnemyShots
	}
	shot := pool.Acquire()
	if shot == nil {
		s.stats.Dropped++
		return
	}

	speed := s.mapper.Speed(s.cfg.EnemyShot.Speed)
	dir := a.Enemy.Direction
	x := a.X + dir*s.mapper.Size(s.cfg.Enemy.Width)/2

	vx, vy := dir*speed, 0.0
	if !s.laneGame() {
		pa := s.player.actor
		dx, dy := pa.X-x, pa.Y-a.Y
		if d := math.Hypot(dx, dy); d > 0 {
			vx, vy = dx/d*speed, dy/d*speed
		}
	}
	shot.Fire(x, a.Y, vx, vy, a.ID)
}

// explode takes a projectile out of play: it stops, its hit-box goes off and
// it returns to its pool once the explosion animation completes.
func (s *Scene) explode(shot *Actor) {
	if shot == nil || !shot.Active || !shot.Alive {
		return
	}
	shot.Alive = false
	shot.VX, shot.VY = 0, 0
	shot.DisableHitbox()

	anim := s.cfg.EnemyShot.ExplodeAnimation
	if shot.Category == CategoryPlayerProjectile {
		anim = s.cfg.PlayerShot.ExplodeAnimation
	}
	shot.Play(s.backend, anim, shot.MarkRelease)
}

// cascade explodes every in-flight projectile fired by owner
func (s *Scene) cascade(owner *Actor) int {
	n := 0
	for _, pool := range s.resolver.enemyShots {
		pool.ForEachActive(func(shot *Actor) {
			if shot.OwnerID == owner.ID && shot.Alive {
				s.explode(shot)
				n++
			}
		})
	}
	return n
}
