package moderation

import (
	"fmt"
	"sync"
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

// timerKey identifies one scheduled reversal.
type timerKey struct {
	guildID string
	userID  string
	action  models.Action
}

// FireFunc is invoked exactly once when a scheduled punishment expires.
type FireFunc func(guildID, userID string, action models.Action)

// Scheduler is the in-memory timer registry for temporary punishments. One
// timer per (guild, user, action); scheduling the same key again replaces the
// previous timer. Delays are always recomputed from the absolute expiry, so
// restart recovery and long process sleeps clamp naturally to "fire now".
type Scheduler struct {
	mu      sync.Mutex
	timers  map[timerKey]*scheduledTask
	fire    FireFunc
	seq     uint64
	stopped bool
}

type scheduledTask struct {
	timer *time.Timer
	seq   uint64
}

// NewScheduler creates a scheduler that calls fire when an entry expires.
func NewScheduler(fire FireFunc) *Scheduler {
	return &Scheduler{
		timers: make(map[timerKey]*scheduledTask),
		fire:   fire,
	}
}

// Schedule registers a reversal for expiresAt. Expiries in the past fire
// immediately (delay clamps to zero); an existing timer for the same key is
// replaced.
func (s *Scheduler) Schedule(guildID, userID string, action models.Action, expiresAt time.Time) {
	key := timerKey{guildID: guildID, userID: userID, action: action}

	delay := time.Until(expiresAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if old, ok := s.timers[key]; ok {
		old.timer.Stop()
	}

	s.seq++
	seq := s.seq
	task := &scheduledTask{seq: seq}
	s.timers[key] = task
	task.timer = time.AfterFunc(delay, func() {
		s.expire(key, seq)
	})

	logger.Debug(fmt.Sprintf("Reversión programada para %s/%s (%s) en %s", guildID, userID, action, delay), "Scheduler")
}

// expire runs in the timer goroutine. The sequence check makes cancellation
// effective no matter how close to firing: a task that lost its registry
// entry, or whose entry was replaced, silently drops out.
func (s *Scheduler) expire(key timerKey, seq uint64) {
	s.mu.Lock()
	task, ok := s.timers[key]
	if !ok || task.seq != seq || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.mu.Unlock()

	s.fire(key.guildID, key.userID, key.action)
}

// Cancel removes a pending reversal. Safe to call for keys that were never
// scheduled or whose timer already fired.
func (s *Scheduler) Cancel(guildID, userID string, action models.Action) bool {
	key := timerKey{guildID: guildID, userID: userID, action: action}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.timers[key]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(s.timers, key)
	return true
}

// Len returns the number of pending reversals.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer. Used on shutdown; a stopped scheduler
// ignores further Schedule calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, task := range s.timers {
		task.timer.Stop()
		delete(s.timers, key)
	}
}
