package models

import "time"

// Action is the kind of punishment applied to a member.
type Action string

const (
	ActionMute Action = "mute"
	ActionBan  Action = "ban"
)

// Warning representa una advertencia individual en la colección "warnings".
// IDs are monotonic across the whole collection so "most recent" is
// well defined even when two warnings share a timestamp.
type Warning struct {
	ID          int64     `bson:"id" json:"id"`
	GuildID     string    `bson:"guildId" json:"guildId"`
	UserID      string    `bson:"userId" json:"userId"`
	ModeratorID string    `bson:"moderatorId" json:"moderatorId"`
	Reason      string    `bson:"reason" json:"reason"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

// Punishment representa un castigo activo en la colección "punishments".
// A document is uniquely identified by (guildId, userId, action). Count is
// the warning threshold that imposed the punishment, so a later escalation
// can tell itself apart from a re-entry on the same threshold.
// A nil ExpiresAt means the punishment is permanent.
type Punishment struct {
	GuildID   string     `bson:"guildId" json:"guildId"`
	UserID    string     `bson:"userId" json:"userId"`
	Action    Action     `bson:"action" json:"action"`
	Count     int        `bson:"count" json:"count"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// Permanent reports whether the punishment has no expiry.
func (p *Punishment) Permanent() bool {
	return p.ExpiresAt == nil
}
