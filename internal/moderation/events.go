package moderation

import (
	"time"

	"github.com/google/uuid"

	"github.com/GeorToxa/moderatorDiscordBot/pkg/models"
)

// EventType classifies a moderation lifecycle event.
type EventType string

const (
	EventWarned          EventType = "warned"
	EventWarningRemoved  EventType = "warning_removed"
	EventWarningsCleared EventType = "warnings_cleared"
	EventPunished        EventType = "punished"
	EventReversed        EventType = "reversed"
)

// Event is emitted by the engine whenever the warning ledger or the
// punishment table changes. Consumed by the MQTT publisher and the web
// event stream.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	GuildID   string        `json:"guildId"`
	UserID    string        `json:"userId"`
	Action    models.Action `json:"action,omitempty"`
	Count     int           `json:"count"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventSink receives lifecycle events. Implementations must not block for
// long; the engine publishes from its own goroutine per event.
type EventSink interface {
	PublishModerationEvent(Event)
}

// MultiSink fans one event out to several sinks.
type MultiSink []EventSink

// PublishModerationEvent implements EventSink.
func (m MultiSink) PublishModerationEvent(ev Event) {
	for _, sink := range m {
		sink.PublishModerationEvent(ev)
	}
}

func newEvent(typ EventType, guildID, userID string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      typ,
		GuildID:   guildID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}
