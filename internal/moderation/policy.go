// Package moderation implements the warning and punishment lifecycle of the
// bot: the escalation policy, the durable punishment table and the timer
// registry that reverses temporary punishments when they expire.
package moderation

import (
	"time"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

// Penalty is the outcome of crossing a warning threshold.
type Penalty struct {
	Action    models.Action
	Duration  time.Duration
	Permanent bool
}

// Policy maps an exact warning count to a penalty. Counts escalate only when
// they land on a listed threshold: a count of 9 or 10 triggers nothing new.
type Policy map[int]Penalty

// DefaultPolicy returns the escalation table used in production.
func DefaultPolicy() Policy {
	return Policy{
		3: {Action: models.ActionMute, Duration: 1 * time.Hour},
		4: {Action: models.ActionMute, Duration: 12 * time.Hour},
		5: {Action: models.ActionMute, Duration: 24 * time.Hour},
		6: {Action: models.ActionMute, Duration: 168 * time.Hour},
		7: {Action: models.ActionMute, Duration: 672 * time.Hour},
		8: {Action: models.ActionBan, Permanent: true},
	}
}

// Lookup returns the penalty for an exact warning count, if any.
func (p Policy) Lookup(count int) (Penalty, bool) {
	penalty, ok := p[count]
	return penalty, ok
}

// MinThreshold returns the lowest warning count that triggers a penalty.
// Below it no punishment is justified anymore. Returns 0 for an empty table.
func (p Policy) MinThreshold() int {
	min := 0
	for count := range p {
		if min == 0 || count < min {
			min = count
		}
	}
	return min
}
