package game

import (
	"edu-arcade/internal/game/physics"
)

// ResolutionKind is the outcome of one detected collision
type ResolutionKind uint8

const (
	ResolutionEnemyKilled     ResolutionKind = iota // player projectile × enemy
	ResolutionPlayerHit                             // enemy projectile × player
	ResolutionShotAbsorbed                          // enemy projectile × invulnerable player
	ResolutionPlayerRammed                          // enemy × player
	ResolutionNestHit                               // enemy projectile × nest
	ResolutionEnemyBreach                           // enemy × nest
	ResolutionAnswerCollected                       // player × collectible
)

// String returns the resolution name
func (k ResolutionKind) String() string {
	switch k {
	case ResolutionEnemyKilled:
		return "enemy_killed"
	case ResolutionPlayerHit:
		return "player_hit"
	case ResolutionShotAbsorbed:
		return "shot_absorbed"
	case ResolutionPlayerRammed:
		return "player_rammed"
	case ResolutionNestHit:
		return "nest_hit"
	case ResolutionEnemyBreach:
		return "enemy_breach"
	case ResolutionAnswerCollected:
		return "answer_collected"
	default:
		return "unknown"
	}
}

// Resolution is a typed collision result consumed by the scene in the same frame
type Resolution struct {
	Kind ResolutionKind
	Lane int

	// Target is the enemy, collectible or (for hits) the projectile's victim side
	Target *Actor
	// Source is the projectile involved, if any
	Source *Actor
}

// Resolver tests the active actor pairs once per tick. Every hit-box involved
// in a detection is disabled before the next pair is tested, so each pair
// resolves at most once.
type Resolver struct {
	player      *Player
	lanes       []*Lane
	enemies     *Pool
	playerShots []*Pool
	enemyShots  []*Pool
	answers     *Pool

	touched []*Actor
}

// Resolve appends this tick's resolutions to out.
//
// Nest hits are detected before player shots so that a lane whose base was
// struck this tick cannot also score a kill with an already cancelled shot.
func (r *Resolver) Resolve(out []Resolution) []Resolution {
	player := r.player.actor

	// Enemy projectile × player
	for _, pool := range r.enemyShots {
		pool.ForEachActive(func(shot *Actor) {
			if !shot.Hittable() || !player.Hittable() || !sameLane(shot, player) {
				return
			}
			if !physics.Overlaps(shot.body, player.body) {
				return
			}
			shot.DisableHitbox()
			kind := ResolutionPlayerHit
			if r.player.State != PlayerAlive {
				kind = ResolutionShotAbsorbed
			}
			out = append(out, Resolution{Kind: kind, Lane: shot.Lane, Target: player, Source: shot})
		})
	}

	// Enemy × player. An invulnerable player is passed through.
	if player.Hittable() && r.player.State == PlayerAlive {
		r.enemies.ForEachActive(func(enemy *Actor) {
			if !enemy.Enemy.Collidable() || !sameLane(enemy, player) {
				return
			}
			if !physics.Overlaps(enemy.body, player.body) {
				return
			}
			enemy.DisableHitbox()
			out = append(out, Resolution{Kind: ResolutionPlayerRammed, Lane: enemy.Lane, Target: enemy})
		})
	}

	// Enemy projectile × nest, enemy × nest
	var struck uint64
	for _, lane := range r.lanes {
		if lane.nest == nil || !lane.nest.Enabled() {
			continue
		}
		lane.EnemyShots.ForEachActive(func(shot *Actor) {
			if !shot.Hittable() || !physics.Overlaps(shot.body, lane.nest) {
				return
			}
			shot.DisableHitbox()
			struck |= 1 << uint(lane.Index)
			out = append(out, Resolution{Kind: ResolutionNestHit, Lane: lane.Index, Source: shot})
		})
		if enemy := lane.enemy; enemy != nil && enemy.Enemy.Collidable() && physics.Overlaps(enemy.body, lane.nest) {
			enemy.DisableHitbox()
			struck |= 1 << uint(lane.Index)
			out = append(out, Resolution{Kind: ResolutionEnemyBreach, Lane: lane.Index, Target: enemy})
		}
	}

	// Player projectile × enemy
	for _, pool := range r.playerShots {
		pool.ForEachActive(func(shot *Actor) {
			if !shot.Hittable() {
				return
			}
			if shot.Lane >= 0 && struck&(1<<uint(shot.Lane)) != 0 {
				return
			}
			var target *Actor
			shot.body.Overlapping(physics.LayerEnemy, func(other *physics.Body) bool {
				enemy, ok := other.Owner.(*Actor)
				if !ok || enemy.Enemy == nil || !enemy.Enemy.Collidable() || !sameLane(shot, enemy) {
					return true
				}
				target = enemy
				return false
			})
			if target == nil {
				return
			}
			shot.DisableHitbox()
			target.DisableHitbox()
			out = append(out, Resolution{Kind: ResolutionEnemyKilled, Lane: target.Lane, Target: target, Source: shot})
		})
	}

	// Player × collectible
	if r.answers != nil && player.Hittable() {
		r.touched = r.touched[:0]
		player.body.Overlapping(physics.LayerCollectible, func(other *physics.Body) bool {
			if answer, ok := other.Owner.(*Actor); ok && answer.Hittable() {
				r.touched = append(r.touched, answer)
			}
			return true
		})
		for _, answer := range r.touched {
			answer.DisableHitbox()
			out = append(out, Resolution{Kind: ResolutionAnswerCollected, Lane: -1, Target: answer})
		}
	}

	return out
}

// sameLane is true for arena actors or actors on the same lane
func sameLane(a, b *Actor) bool {
	return a.Lane < 0 || b.Lane < 0 || a.Lane == b.Lane
}
