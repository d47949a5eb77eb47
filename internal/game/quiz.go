package game

import (
	"fmt"

	"edu-arcade/internal/game/layout"
)

// beginQuestion presents the current question: lane games relabel their
// enemies, arena games send in a wave of answer collectibles.
func (s *Scene) beginQuestion() {
	q, ok := s.quiz.Current()
	if !ok {
		return
	}

	if s.laneGame() {
		for _, lane := range s.lanes {
			if lane.Slot() == SlotAlive {
				labelEnemy(lane.enemy, q, lane.Index)
			}
		}
		return
	}
	s.spawnAnswers(q)
}

// spawnAnswers launches one collectible per option from the right edge
func (s *Scene) spawnAnswers(q Question) {
	n := len(q.Answers)
	speed := s.mapper.Speed(s.cfg.Quiz.AnswerSpeed)
	for i := range q.Answers {
		a := s.answers.Acquire()
		if a == nil {
			continue
		}
		ans := q.Answers[i]
		a.Answer = &ans
		a.Label = ans.Content

		p := s.mapper.SpawnPoint(layout.EdgeRight, float64(i+1)/float64(n+1))
		a.Spawn(p.X, p.Y, -speed, 0)
		s.answersOut++
		a.OnRelease(func() { s.answersOut-- })

		s.observer.ObserveSpawn(s.cfg.Mode, CategoryCollectible)
		s.emit(EventTypeSpawn, SpawnPayload{
			ActorID:  a.ID,
			Category: a.Category.String(),
			Lane:     -1,
			X:        p.X,
			Y:        p.Y,
			Label:    a.Label,
		})
	}
	s.waveOpen = true
}

// collect handles the player touching an answer collectible
func (s *Scene) collect(a *Actor) {
	ans := a.Answer
	a.Alive = false
	a.MarkRelease()
	if ans == nil {
		return
	}
	s.resolveAnswer(ans, a.X, a.Y)
}

// resolveAnswer settles the open question. ans is nil for a miss (timeout or
// base hit). Exactly one outcome runs per question and exactly one advance is
// scheduled: the correct delay for a right answer, the wrong delay otherwise.
// Stray resolutions of an already settled question change nothing.
func (s *Scene) resolveAnswer(ans *Answer, x, y float64) {
	if s.quiz == nil {
		return
	}
	q, _ := s.quiz.Current()

	var given Answer
	if ans != nil {
		given = *ans
	}
	correct, ok := s.quiz.Resolve(given)
	if !ok {
		return
	}
	s.waveOpen = false
	s.stats.Answers++
	s.retireAnswers()

	delay := s.cfg.Quiz.WrongDelay
	if correct {
		delay = s.cfg.Quiz.CorrectDelay
		s.stats.Correct++
		s.ledger.AddScore(s.cfg.Quiz.CorrectReward)
		s.fx.text(x, y, fmt.Sprintf("+%d", s.cfg.Quiz.CorrectReward), colorReward)
	} else {
		s.penalize(x, y)
	}

	s.observer.ObserveAnswer(s.cfg.Mode, correct)
	s.emit(EventTypeAnswer, AnswerPayload{
		Prompt:  q.Prompt,
		Given:   given.Content,
		Correct: correct,
		Score:   s.ledger.Score(),
		Energy:  s.ledger.Energy(),
	})

	if s.state != StatePlaying {
		return
	}
	s.advance.Stop()
	s.advance = s.sceneTimers.After(delay, s.nextQuestion)
}

// retireAnswers takes the options of a settled question out of play
func (s *Scene) retireAnswers() {
	if s.laneGame() {
		for _, lane := range s.lanes {
			if lane.enemy != nil {
				lane.enemy.Answer = nil
				lane.enemy.Label = ""
			}
		}
		return
	}
	s.answers.ForEachActive(func(a *Actor) {
		if a.Alive {
			a.Alive = false
			a.DisableHitbox()
			a.MarkRelease()
		}
	})
}

// nextQuestion moves past the settled question or completes the level
func (s *Scene) nextQuestion() {
	if s.state != StatePlaying {
		return
	}
	if !s.quiz.Advance() {
		s.finish(StateLevelComplete)
		return
	}
	s.beginQuestion()
}

// checkAnswerTimeout settles the question as missed once every answer of the
// wave has left the playfield uncollected.
func (s *Scene) checkAnswerTimeout() {
	if s.state != StatePlaying || s.quiz == nil || s.laneGame() {
		return
	}
	if !s.waveOpen || s.answersOut > 0 || s.quiz.Resolved() {
		return
	}
	pa := s.player.actor
	s.resolveAnswer(nil, pa.X, pa.Y)
}
